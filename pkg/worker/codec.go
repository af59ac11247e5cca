package worker

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Codec is an interface for decoding messages from a message broker into
// an Event.
type Codec interface {
	// Decode transforms a Watermill message into an Event.
	Decode(topic string, msg *message.Message) (*Event, error)
}

// DefaultCodec decodes the gateway's JSON envelope. Fields missing from
// the payload fall back to message metadata, so envelopes published by
// raw-payload drivers still decode.
type DefaultCodec struct{}

type envelope struct {
	Provider string                 `json:"provider"`
	Kind     string                 `json:"kind"`
	Action   string                 `json:"action"`
	Repo     string                 `json:"repo"`
	Data     map[string]interface{} `json:"data"`
}

// Decode unmarshals a Watermill message into an Event.
func (DefaultCodec) Decode(topic string, msg *message.Message) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return nil, err
	}

	metadata := make(map[string]string, len(msg.Metadata))
	for key, value := range msg.Metadata {
		metadata[key] = value
	}

	provider := env.Provider
	if provider == "" {
		provider = msg.Metadata.Get("provider")
	}
	kind := env.Kind
	if kind == "" {
		kind = msg.Metadata.Get("kind")
	}
	action := env.Action
	if action == "" {
		action = msg.Metadata.Get("action")
	}
	repo := env.Repo
	if repo == "" {
		repo = msg.Metadata.Get("repo")
	}

	return &Event{
		Provider: provider,
		Kind:     kind,
		Action:   action,
		Repo:     repo,
		Topic:    topic,
		Metadata: metadata,
		Payload:  json.RawMessage(msg.Payload),
		Data:     env.Data,
	}, nil
}
