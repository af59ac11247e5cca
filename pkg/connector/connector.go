// Package connector wraps the remote service SDKs behind uniform
// result-map operations so the embedding agent can treat every call,
// webhook or CRUD, the same way. The webhook core in pkg/hook never sees
// these clients; they stay opaque on the other side of the facade.
package connector

import (
	"encoding/json"

	"agenthooks/internal"
	"agenthooks/pkg/hook"
)

// Connector is the capability surface every service facade provides:
// inbound webhook handling plus whatever outbound operations the service
// supports, all speaking hook.Result.
type Connector interface {
	// Name identifies the service ("github", "slack").
	Name() string
	// HandleWebhook runs the full inbound pipeline: verify, normalize,
	// dispatch to the supplied handlers.
	HandleWebhook(body []byte, headers map[string]string, handlers hook.HandlerTable) hook.Result
}

func failErr(err error) hook.Result {
	return hook.Fail(err.Error())
}

// dispatch routes a normalized event and counts misses so operators can
// see handler tables drifting out of sync with subscribed event types.
func dispatch(provider string, evt hook.Event, handlers hook.HandlerTable) hook.Result {
	if _, ok := handlers[evt.Kind]; !ok {
		internal.IncDispatchMiss(provider)
	}
	return hook.Route(evt, handlers)
}

func parseBody(body []byte) (map[string]interface{}, bool) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false
	}
	return payload, true
}
