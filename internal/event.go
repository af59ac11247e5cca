package internal

import "encoding/json"

// Event is the envelope published on the message bus for each accepted
// webhook delivery. It carries the normalized classification alongside the
// raw payload so consumers can use either.
type Event struct {
	// Provider is the source service ("github" or "slack").
	Provider string `json:"provider"`
	// Kind is the normalized event kind, e.g. "pr-merged".
	Kind string `json:"kind"`
	// Action is the verbatim action string from the payload.
	Action string `json:"action,omitempty"`
	// Repo is the originating repository or channel.
	Repo string `json:"repo,omitempty"`
	// Data contains the kind-specific extracted fields.
	Data map[string]interface{} `json:"data,omitempty"`
	// RequestID is the provider's delivery identifier, when present.
	RequestID string `json:"request_id,omitempty"`
	// RawPayload is the exact body bytes as received.
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
	// RawObject is the parsed payload tree, used for rule evaluation. Not
	// serialized; consumers re-parse RawPayload when they need it.
	RawObject interface{} `json:"-"`
}
