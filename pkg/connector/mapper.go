package connector

import (
	"fmt"
	"time"

	"agenthooks/pkg/hook"
)

// MemoryEntry is the agent system's record of something that happened:
// one normalized event flattened into a storable, searchable shape.
type MemoryEntry struct {
	Source     string                 `json:"source"`
	Kind       string                 `json:"kind"`
	Resource   string                 `json:"resource,omitempty"`
	Summary    string                 `json:"summary"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
	ObservedAt time.Time              `json:"observedAt"`
}

// Task is a unit of work the agent should pick up in response to an
// event. Only actionable kinds map to tasks.
type Task struct {
	Title    string   `json:"title"`
	Body     string   `json:"body,omitempty"`
	Origin   string   `json:"origin"`
	Labels   []string `json:"labels,omitempty"`
	Resource string   `json:"resource,omitempty"`
}

// ToMemoryEntry translates any normalized event into a memory entry. It
// never fails; unknown kinds get a generic summary.
func ToMemoryEntry(source string, evt hook.Event) MemoryEntry {
	return MemoryEntry{
		Source:     source,
		Kind:       string(evt.Kind),
		Resource:   evt.Repo,
		Summary:    summarize(evt),
		Fields:     evt.Data,
		ObservedAt: time.Now().UTC(),
	}
}

// ToTask translates an event into a task when the kind is actionable.
// The second return is false for kinds that only deserve a memory entry.
func ToTask(source string, evt hook.Event) (Task, bool) {
	switch evt.Kind {
	case hook.KindIssueOpened:
		return Task{
			Title:    fmt.Sprintf("Triage issue #%v: %v", evt.Data["number"], evt.Data["title"]),
			Body:     fmt.Sprintf("Issue opened by %v in %s.", evt.Data["author"], evt.Repo),
			Origin:   source,
			Labels:   []string{"triage"},
			Resource: evt.Repo,
		}, true
	case hook.KindIssueCommentCreated:
		body, _ := evt.Data["body"].(string)
		return Task{
			Title:    fmt.Sprintf("Respond to comment on issue #%v", evt.Data["issueNumber"]),
			Body:     body,
			Origin:   source,
			Labels:   []string{"follow-up"},
			Resource: evt.Repo,
		}, true
	case hook.KindPROpened:
		return Task{
			Title:    fmt.Sprintf("Review PR #%v: %v", evt.Data["number"], evt.Data["title"]),
			Body:     fmt.Sprintf("Pull request opened by %v in %s.", evt.Data["author"], evt.Repo),
			Origin:   source,
			Labels:   []string{"review"},
			Resource: evt.Repo,
		}, true
	case hook.KindAppMention:
		text, _ := evt.Data["text"].(string)
		return Task{
			Title:    fmt.Sprintf("Answer mention in %s", evt.Repo),
			Body:     text,
			Origin:   source,
			Labels:   []string{"mention"},
			Resource: evt.Repo,
		}, true
	default:
		return Task{}, false
	}
}

func summarize(evt hook.Event) string {
	switch evt.Kind {
	case hook.KindIssueOpened, hook.KindIssueClosed, hook.KindIssueReopened:
		return fmt.Sprintf("%s: issue #%v %v", evt.Kind, evt.Data["number"], evt.Data["title"])
	case hook.KindIssueCommentCreated:
		return fmt.Sprintf("comment by %v on issue #%v", evt.Data["author"], evt.Data["issueNumber"])
	case hook.KindPROpened, hook.KindPRMerged, hook.KindPRClosed, hook.KindPRUpdated:
		return fmt.Sprintf("%s: PR #%v %v", evt.Kind, evt.Data["number"], evt.Data["title"])
	case hook.KindPRReviewSubmitted:
		return fmt.Sprintf("review submitted on PR #%v", evt.Data["number"])
	case hook.KindPush:
		return fmt.Sprintf("push to %v (%v commits)", evt.Data["ref"], evt.Data["commits"])
	case hook.KindMessagePosted, hook.KindAppMention:
		return fmt.Sprintf("%s in %s by %v", evt.Kind, evt.Repo, evt.Data["user"])
	case hook.KindReactionAdded:
		return fmt.Sprintf("reaction :%v: in %s", evt.Data["reaction"], evt.Repo)
	default:
		return fmt.Sprintf("unclassified %s event", evt.Action)
	}
}
