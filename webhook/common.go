// Package webhook holds the HTTP boundary for the connectors. Each
// handler verifies the request, normalizes the payload through pkg/hook,
// records the delivery, and publishes the envelope for every matching
// topic rule.
package webhook

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"agenthooks/internal"
	"agenthooks/pkg/storage"
)

const recordTimeout = 5 * time.Second

func parsePayload(raw []byte) (map[string]interface{}, bool) {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}
	return payload, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// recordDelivery persists the delivery when a store is configured.
// Persistence failures are logged, not surfaced; losing the audit row
// must not fail the webhook.
func recordDelivery(store storage.DeliveryStore, logger *log.Logger, event internal.Event, topics []string) {
	if store == nil || event.RequestID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	err := store.RecordDelivery(ctx, storage.DeliveryRecord{
		Provider:    event.Provider,
		DeliveryID:  event.RequestID,
		Kind:        event.Kind,
		Action:      event.Action,
		Repo:        event.Repo,
		Topics:      strings.Join(topics, ","),
		PayloadJSON: string(event.RawPayload),
	})
	if err != nil {
		logger.Printf("record delivery %s failed: %v", event.RequestID, err)
	}
}

// emit evaluates the topic rules and publishes the envelope once per
// match. It returns the matched topic names for the response body.
func emit(ctx context.Context, rules *internal.RuleEngine, publisher internal.Publisher, logger *log.Logger, event internal.Event) []string {
	if rules == nil || publisher == nil {
		return nil
	}
	matches := rules.Evaluate(event)
	topics := make([]string, 0, len(matches))
	for _, match := range matches {
		topics = append(topics, match.Topic)
		if err := publisher.PublishForDrivers(ctx, match.Topic, event, match.Drivers); err != nil {
			logger.Printf("publish %s failed: %v", match.Topic, err)
		}
	}
	logger.Printf("event provider=%s kind=%s repo=%s topics=%v", event.Provider, event.Kind, event.Repo, topics)
	return topics
}
