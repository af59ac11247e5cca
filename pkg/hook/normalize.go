package hook

// Normalize maps a GitHub webhook delivery, identified by the
// X-GitHub-Event header value and its parsed JSON payload, into a
// normalized Event. It never fails: unrecognized event types and actions
// degrade to KindUnknown with the raw payload as data, and missing nested
// fields are simply absent from the extracted data.
//
// Classification is a pure function of (eventType, action, merged flag);
// identical inputs always produce identical events.
func Normalize(eventType string, payload map[string]interface{}) Event {
	action, _ := payload["action"].(string)

	evt := Event{
		Kind:   classify(eventType, action, payload),
		Repo:   repoFullName(payload),
		Action: action,
		Data:   extract(eventType, payload),
		Raw:    payload,
	}
	return evt
}

func classify(eventType, action string, payload map[string]interface{}) Kind {
	switch eventType {
	case "issues":
		switch action {
		case "opened":
			return KindIssueOpened
		case "closed":
			return KindIssueClosed
		case "reopened":
			return KindIssueReopened
		}
	case "issue_comment":
		if action == "created" {
			return KindIssueCommentCreated
		}
	case "pull_request":
		switch action {
		case "opened":
			return KindPROpened
		case "closed":
			// A closed PR is merged only when the nested flag says so;
			// a missing flag falls through to pr-closed.
			if merged, _ := nested(payload, "pull_request")["merged"].(bool); merged {
				return KindPRMerged
			}
			return KindPRClosed
		case "synchronize":
			return KindPRUpdated
		}
	case "pull_request_review":
		if action == "submitted" {
			return KindPRReviewSubmitted
		}
	case "push":
		if action == "" {
			return KindPush
		}
	}
	return KindUnknown
}

// extract pulls the small kind-specific field set out of the payload. It
// is keyed by event type alone so diagnostics keep their fields even when
// the action did not classify.
func extract(eventType string, payload map[string]interface{}) map[string]interface{} {
	switch eventType {
	case "issues":
		issue := nested(payload, "issue")
		if issue == nil {
			return map[string]interface{}{}
		}
		data := map[string]interface{}{}
		putIfPresent(data, "number", issue["number"])
		putIfPresent(data, "title", issue["title"])
		putIfPresent(data, "author", nested(issue, "user")["login"])
		return data
	case "pull_request":
		pr := nested(payload, "pull_request")
		if pr == nil {
			return map[string]interface{}{}
		}
		data := map[string]interface{}{}
		putIfPresent(data, "number", pr["number"])
		putIfPresent(data, "title", pr["title"])
		putIfPresent(data, "author", nested(pr, "user")["login"])
		putIfPresent(data, "merged", pr["merged"])
		return data
	case "issue_comment":
		data := map[string]interface{}{}
		putIfPresent(data, "issueNumber", nested(payload, "issue")["number"])
		putIfPresent(data, "commentId", nested(payload, "comment")["id"])
		putIfPresent(data, "author", nested(nested(payload, "comment"), "user")["login"])
		putIfPresent(data, "body", nested(payload, "comment")["body"])
		return data
	case "push":
		data := map[string]interface{}{}
		putIfPresent(data, "ref", payload["ref"])
		putIfPresent(data, "before", payload["before"])
		putIfPresent(data, "after", payload["after"])
		if commits, ok := payload["commits"].([]interface{}); ok {
			data["commits"] = len(commits)
		}
		return data
	default:
		return payload
	}
}

func repoFullName(payload map[string]interface{}) string {
	name, _ := nested(payload, "repository")["full_name"].(string)
	return name
}

// nested returns the map under key, or nil. Lookups on the nil result are
// safe, so callers can chain without checking.
func nested(payload map[string]interface{}, key string) map[string]interface{} {
	if payload == nil {
		return nil
	}
	child, _ := payload[key].(map[string]interface{})
	return child
}

func putIfPresent(data map[string]interface{}, key string, value interface{}) {
	if value != nil {
		data[key] = value
	}
}
