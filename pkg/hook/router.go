package hook

import "fmt"

// Route dispatches a normalized event to the handler registered for its
// kind and returns the handler's result verbatim. The router never wraps,
// retries, or recovers handler failures; the only failure it originates is
// the dispatch miss when no handler is registered for the kind.
func Route(evt Event, handlers HandlerTable) Result {
	handler, ok := handlers[evt.Kind]
	if !ok || handler == nil {
		return Fail(fmt.Sprintf("No handler for event: %s", evt.Kind))
	}
	return handler(evt)
}

// Ok builds a success result, merging in any extra fields.
func Ok(fields map[string]interface{}) Result {
	out := Result{"ok": true}
	for key, value := range fields {
		out[key] = value
	}
	return out
}

// Fail builds a failure result with the given message.
func Fail(message string) Result {
	return Result{"ok": false, "error": message}
}
