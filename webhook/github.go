package webhook

import (
	"io"
	"log"
	"net/http"

	"agenthooks/internal"
	"agenthooks/pkg/hook"
	"agenthooks/pkg/storage"
)

// GitHubHandler terminates GitHub webhook deliveries. Every request is
// authenticated with the X-Hub-Signature-256 header before the body is
// parsed; unsigned or mis-signed requests are rejected without touching
// the payload.
type GitHubHandler struct {
	secret    string
	rules     *internal.RuleEngine
	publisher internal.Publisher
	store     storage.DeliveryStore
	logger    *log.Logger
}

func NewGitHubHandler(secret string, rules *internal.RuleEngine, publisher internal.Publisher, store storage.DeliveryStore, logger *log.Logger) *GitHubHandler {
	if logger == nil {
		logger = internal.NewLogger("github")
	}
	return &GitHubHandler{
		secret:    secret,
		rules:     rules,
		publisher: publisher,
		store:     store,
		logger:    logger,
	}
}

func (h *GitHubHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	if !hook.ValidateSignature(rawBody, r.Header.Get("X-Hub-Signature-256"), h.secret) {
		internal.IncInvalidSignature("github")
		h.logger.Printf("rejected delivery with invalid signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	payload, ok := parsePayload(rawBody)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	if eventType == "ping" {
		w.WriteHeader(http.StatusOK)
		return
	}

	internal.IncDelivery("github")

	evt := hook.Normalize(eventType, payload)
	if evt.Kind == hook.KindUnknown {
		internal.IncUnknownEvent("github")
	}

	event := internal.Event{
		Provider:   "github",
		Kind:       string(evt.Kind),
		Action:     evt.Action,
		Repo:       evt.Repo,
		Data:       evt.Data,
		RequestID:  r.Header.Get("X-GitHub-Delivery"),
		RawPayload: rawBody,
		RawObject:  payload,
	}

	topics := emit(r.Context(), h.rules, h.publisher, h.logger, event)
	recordDelivery(h.store, h.logger, event, topics)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"ok":     true,
		"kind":   event.Kind,
		"topics": topics,
	})
}
