package worker

import "encoding/json"

// Event represents a message received by the worker: one published
// webhook envelope, decoded.
type Event struct {
	// Provider is the source service ("github", "slack").
	Provider string `json:"provider"`
	// Kind is the normalized event kind (e.g. "pr-merged").
	Kind string `json:"kind"`
	// Action is the verbatim action string from the source payload.
	Action string `json:"action"`
	// Repo is the originating repository or channel.
	Repo string `json:"repo"`
	// Topic is the name of the topic the message was received on.
	Topic string `json:"topic"`
	// Metadata contains message-broker metadata.
	Metadata map[string]string `json:"metadata"`
	// Payload is the raw JSON payload of the message.
	Payload json.RawMessage `json:"payload"`
	// Data is the kind-specific extracted field set from normalization.
	Data map[string]interface{} `json:"data"`
	// Client is a connector client for the provider, if available.
	Client interface{} `json:"-"`
}
