package webhook

import (
	"io"
	"log"
	"net/http"

	"agenthooks/internal"
	"agenthooks/pkg/hook"
	"agenthooks/pkg/storage"

	"github.com/slack-go/slack"
)

// SlackHandler terminates Slack Events API deliveries. Requests are
// authenticated with Slack's signed-secrets scheme before parsing, and
// the one-time url_verification handshake is answered inline.
type SlackHandler struct {
	signingSecret string
	rules         *internal.RuleEngine
	publisher     internal.Publisher
	store         storage.DeliveryStore
	logger        *log.Logger
}

func NewSlackHandler(signingSecret string, rules *internal.RuleEngine, publisher internal.Publisher, store storage.DeliveryStore, logger *log.Logger) *SlackHandler {
	if logger == nil {
		logger = internal.NewLogger("slack")
	}
	return &SlackHandler{
		signingSecret: signingSecret,
		rules:         rules,
		publisher:     publisher,
		store:         store,
		logger:        logger,
	}
}

func (h *SlackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !h.verify(r.Header, rawBody) {
		internal.IncInvalidSignature("slack")
		h.logger.Printf("rejected delivery with invalid signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	payload, ok := parsePayload(rawBody)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	callbackType, _ := payload["type"].(string)
	switch callbackType {
	case "url_verification":
		challenge, _ := payload["challenge"].(string)
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	case "event_callback":
		// Fall through to normalization below.
	default:
		w.WriteHeader(http.StatusOK)
		return
	}

	internal.IncDelivery("slack")

	evt := hook.NormalizeSlack(payload)
	if evt.Kind == hook.KindUnknown {
		internal.IncUnknownEvent("slack")
	}

	eventID, _ := payload["event_id"].(string)
	event := internal.Event{
		Provider:   "slack",
		Kind:       string(evt.Kind),
		Action:     evt.Action,
		Repo:       evt.Repo,
		Data:       evt.Data,
		RequestID:  eventID,
		RawPayload: rawBody,
		RawObject:  payload,
	}

	topics := emit(r.Context(), h.rules, h.publisher, h.logger, event)
	recordDelivery(h.store, h.logger, event, topics)

	// Slack retries on anything other than a prompt 2xx.
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"kind":   event.Kind,
		"topics": topics,
	})
}

func (h *SlackHandler) verify(header http.Header, body []byte) bool {
	verifier, err := slack.NewSecretsVerifier(header, h.signingSecret)
	if err != nil {
		return false
	}
	if _, err := verifier.Write(body); err != nil {
		return false
	}
	return verifier.Ensure() == nil
}
