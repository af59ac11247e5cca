package hook

import (
	"encoding/json"
	"reflect"
	"testing"
)

func parsePayload(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	return payload
}

// TestNormalizeIssueOpened tests classification and field extraction for an
// opened issue.
func TestNormalizeIssueOpened(t *testing.T) {
	payload := parsePayload(t, `{
		"action": "opened",
		"repository": {"full_name": "o/r"},
		"issue": {"number": 42, "title": "T", "user": {"login": "u"}}
	}`)

	evt := Normalize("issues", payload)
	if evt.Kind != KindIssueOpened {
		t.Fatalf("expected issue-opened, got %s", evt.Kind)
	}
	if evt.Repo != "o/r" {
		t.Fatalf("expected repo o/r, got %q", evt.Repo)
	}
	if evt.Action != "opened" {
		t.Fatalf("expected action opened, got %q", evt.Action)
	}
	if evt.Data["number"] != float64(42) || evt.Data["title"] != "T" || evt.Data["author"] != "u" {
		t.Fatalf("unexpected data: %v", evt.Data)
	}
}

// TestNormalizeIssueActions tests the remaining issue action classifications.
func TestNormalizeIssueActions(t *testing.T) {
	cases := map[string]Kind{
		"closed":   KindIssueClosed,
		"reopened": KindIssueReopened,
		"labeled":  KindUnknown,
	}
	for action, want := range cases {
		payload := map[string]interface{}{"action": action}
		if got := Normalize("issues", payload).Kind; got != want {
			t.Fatalf("action %q: expected %s, got %s", action, want, got)
		}
	}
}

// TestNormalizePullRequestMerged tests that a closed PR with the merged
// flag set classifies as pr-merged, and without it as pr-closed.
func TestNormalizePullRequestMerged(t *testing.T) {
	merged := parsePayload(t, `{"action":"closed","pull_request":{"number":10,"merged":true}}`)
	if got := Normalize("pull_request", merged).Kind; got != KindPRMerged {
		t.Fatalf("expected pr-merged, got %s", got)
	}

	unmerged := parsePayload(t, `{"action":"closed","pull_request":{"number":10,"merged":false}}`)
	if got := Normalize("pull_request", unmerged).Kind; got != KindPRClosed {
		t.Fatalf("expected pr-closed, got %s", got)
	}
}

// TestNormalizePullRequestMergedFlagMissing tests that a closed PR whose
// payload lacks the merged flag falls through to pr-closed.
func TestNormalizePullRequestMergedFlagMissing(t *testing.T) {
	payload := parsePayload(t, `{"action":"closed","pull_request":{"number":10}}`)
	if got := Normalize("pull_request", payload).Kind; got != KindPRClosed {
		t.Fatalf("expected pr-closed, got %s", got)
	}
}

// TestNormalizePullRequestFields tests PR classification and data fields.
func TestNormalizePullRequestFields(t *testing.T) {
	payload := parsePayload(t, `{
		"action": "opened",
		"repository": {"full_name": "o/r"},
		"pull_request": {"number": 7, "title": "Add thing", "merged": false, "user": {"login": "dev"}}
	}`)

	evt := Normalize("pull_request", payload)
	if evt.Kind != KindPROpened {
		t.Fatalf("expected pr-opened, got %s", evt.Kind)
	}
	if evt.Data["number"] != float64(7) || evt.Data["author"] != "dev" || evt.Data["merged"] != false {
		t.Fatalf("unexpected data: %v", evt.Data)
	}

	payload["action"] = "synchronize"
	if got := Normalize("pull_request", payload).Kind; got != KindPRUpdated {
		t.Fatalf("expected pr-updated, got %s", got)
	}
}

// TestNormalizeIssueComment tests issue_comment classification and the
// extracted comment fields.
func TestNormalizeIssueComment(t *testing.T) {
	payload := parsePayload(t, `{
		"action": "created",
		"issue": {"number": 3},
		"comment": {"id": 99, "body": "LGTM", "user": {"login": "rev"}}
	}`)

	evt := Normalize("issue_comment", payload)
	if evt.Kind != KindIssueCommentCreated {
		t.Fatalf("expected issue-comment-created, got %s", evt.Kind)
	}
	if evt.Data["issueNumber"] != float64(3) || evt.Data["commentId"] != float64(99) {
		t.Fatalf("unexpected data: %v", evt.Data)
	}
	if evt.Data["author"] != "rev" || evt.Data["body"] != "LGTM" {
		t.Fatalf("unexpected data: %v", evt.Data)
	}
}

// TestNormalizePush tests push classification and the commit count.
func TestNormalizePush(t *testing.T) {
	payload := parsePayload(t, `{
		"ref": "refs/heads/main",
		"before": "a",
		"after": "b",
		"commits": [{}, {}, {}]
	}`)

	evt := Normalize("push", payload)
	if evt.Kind != KindPush {
		t.Fatalf("expected push, got %s", evt.Kind)
	}
	if evt.Data["ref"] != "refs/heads/main" || evt.Data["before"] != "a" || evt.Data["after"] != "b" {
		t.Fatalf("unexpected data: %v", evt.Data)
	}
	if evt.Data["commits"] != 3 {
		t.Fatalf("expected 3 commits, got %v", evt.Data["commits"])
	}
}

// TestNormalizeUnknownEventType tests that unrecognized event types keep
// the raw payload as data and classify as unknown.
func TestNormalizeUnknownEventType(t *testing.T) {
	payload := parsePayload(t, `{"zen": "Keep it logically awesome."}`)

	evt := Normalize("ping", payload)
	if evt.Kind != KindUnknown {
		t.Fatalf("expected unknown, got %s", evt.Kind)
	}
	if !reflect.DeepEqual(evt.Data, payload) {
		t.Fatalf("expected data to fall back to raw payload")
	}
}

// TestNormalizeMissingNestedFields tests that missing nested objects leave
// fields absent rather than failing.
func TestNormalizeMissingNestedFields(t *testing.T) {
	evt := Normalize("issues", map[string]interface{}{"action": "opened"})
	if evt.Kind != KindIssueOpened {
		t.Fatalf("expected issue-opened, got %s", evt.Kind)
	}
	if len(evt.Data) != 0 {
		t.Fatalf("expected empty data, got %v", evt.Data)
	}
	if evt.Repo != "" {
		t.Fatalf("expected empty repo, got %q", evt.Repo)
	}
}

// TestNormalizeIdempotent tests that normalizing the same payload twice
// yields structurally equal events.
func TestNormalizeIdempotent(t *testing.T) {
	payload := parsePayload(t, `{
		"action": "opened",
		"repository": {"full_name": "o/r"},
		"issue": {"number": 1, "title": "x", "user": {"login": "u"}}
	}`)

	first := Normalize("issues", payload)
	second := Normalize("issues", payload)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical events, got %v and %v", first, second)
	}
}

// TestNormalizeSlackMessage tests Slack event callback normalization.
func TestNormalizeSlackMessage(t *testing.T) {
	payload := parsePayload(t, `{
		"type": "event_callback",
		"event": {"type": "message", "channel": "C123", "user": "U1", "text": "hi", "ts": "1700000000.1"}
	}`)

	evt := NormalizeSlack(payload)
	if evt.Kind != KindMessagePosted {
		t.Fatalf("expected message-posted, got %s", evt.Kind)
	}
	if evt.Repo != "C123" {
		t.Fatalf("expected channel C123, got %q", evt.Repo)
	}
	if evt.Data["text"] != "hi" || evt.Data["user"] != "U1" {
		t.Fatalf("unexpected data: %v", evt.Data)
	}
}

// TestNormalizeSlackReaction tests that reactions resolve the channel from
// the nested item.
func TestNormalizeSlackReaction(t *testing.T) {
	payload := parsePayload(t, `{
		"type": "event_callback",
		"event": {"type": "reaction_added", "reaction": "thumbsup", "user": "U2", "item": {"channel": "C9"}}
	}`)

	evt := NormalizeSlack(payload)
	if evt.Kind != KindReactionAdded {
		t.Fatalf("expected reaction-added, got %s", evt.Kind)
	}
	if evt.Repo != "C9" {
		t.Fatalf("expected channel C9, got %q", evt.Repo)
	}
	if evt.Data["reaction"] != "thumbsup" {
		t.Fatalf("unexpected data: %v", evt.Data)
	}
}

// TestNormalizeSlackUnknown tests that unrecognized Slack events degrade
// to unknown with the raw payload.
func TestNormalizeSlackUnknown(t *testing.T) {
	payload := parsePayload(t, `{"type":"event_callback","event":{"type":"team_join"}}`)

	evt := NormalizeSlack(payload)
	if evt.Kind != KindUnknown {
		t.Fatalf("expected unknown, got %s", evt.Kind)
	}
	if !reflect.DeepEqual(evt.Data, payload) {
		t.Fatalf("expected raw payload as data")
	}
}
