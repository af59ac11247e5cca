// Package hook contains the webhook ingestion core: signature
// verification, event normalization, and handler dispatch. It is pure
// computation with no I/O; the HTTP boundary lives in the webhook package.
package hook

// Kind is a canonical event classification. The set is closed; payloads
// that do not match any known shape classify as KindUnknown, which is a
// valid terminal kind rather than an error.
type Kind string

const (
	KindIssueOpened         Kind = "issue-opened"
	KindIssueClosed         Kind = "issue-closed"
	KindIssueReopened       Kind = "issue-reopened"
	KindIssueCommentCreated Kind = "issue-comment-created"
	KindPROpened            Kind = "pr-opened"
	KindPRMerged            Kind = "pr-merged"
	KindPRClosed            Kind = "pr-closed"
	KindPRUpdated           Kind = "pr-updated"
	KindPRReviewSubmitted   Kind = "pr-review-submitted"
	KindPush                Kind = "push"

	// Slack event kinds.
	KindMessagePosted Kind = "message-posted"
	KindAppMention    Kind = "app-mention"
	KindReactionAdded Kind = "reaction-added"

	KindUnknown Kind = "unknown"
)

// Event is a normalized webhook delivery. It is created once by Normalize
// (or NormalizeSlack), never mutated, and consumed by Route.
type Event struct {
	// Kind is the canonical classification.
	Kind Kind `json:"kind"`
	// Repo is the originating resource, e.g. "owner/repo" for GitHub or a
	// channel ID for Slack. Empty when the payload lacks it.
	Repo string `json:"repo,omitempty"`
	// Action is the verbatim action string from the payload, retained for
	// diagnostics even after classification.
	Action string `json:"action,omitempty"`
	// Data holds the small, kind-specific extracted fields. For
	// unrecognized event types it falls back to the raw payload.
	Data map[string]interface{} `json:"data,omitempty"`
	// Raw is the original structured payload, unmodified, for callers that
	// need unmapped fields.
	Raw map[string]interface{} `json:"raw,omitempty"`
}

// Result is the uniform operation outcome shared by the core and the
// connector facades: "ok" is always present; "error" carries the failure
// message when ok is false.
type Result map[string]interface{}

// OK reports whether the result represents success.
func (r Result) OK() bool {
	ok, _ := r["ok"].(bool)
	return ok
}

// Err returns the error message, or "" for successful results.
func (r Result) Err() string {
	msg, _ := r["error"].(string)
	return msg
}

// HandlerFunc processes one normalized event and returns a result map.
// Handlers own their internal error handling; the router returns whatever
// the handler returns, verbatim.
type HandlerFunc func(Event) Result

// HandlerTable maps event kinds to handlers. It is supplied by the caller
// at each routing call and is never cached by the core.
type HandlerTable map[Kind]HandlerFunc
