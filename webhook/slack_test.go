package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agenthooks/internal"
)

func slackRequest(t *testing.T, signingSecret, body string) *http.Request {
	t.Helper()
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	mac := hmac.New(sha256.New, []byte(signingSecret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	signature := "v0=" + hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/slack", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Slack-Request-Timestamp", timestamp)
	req.Header.Set("X-Slack-Signature", signature)
	return req
}

// TestSlackHandlerURLVerification tests that the handshake challenge is
// echoed back as plain text.
func TestSlackHandlerURLVerification(t *testing.T) {
	const secret = "slack-signing"
	handler := NewSlackHandler(secret, nil, nil, nil, nil)

	body := `{"type":"url_verification","challenge":"abc123"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, slackRequest(t, secret, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "abc123" {
		t.Fatalf("expected challenge echo, got %q", rec.Body.String())
	}
}

// TestSlackHandlerPublishesMessageEvent tests that an event_callback
// message is normalized and published.
func TestSlackHandlerPublishesMessageEvent(t *testing.T) {
	const secret = "slack-signing"
	publisher := &capturePublisher{}
	rules := newTestRules(t, internal.Rule{When: `kind == "message-posted"`, Emit: "slack.message"})
	handler := NewSlackHandler(secret, rules, publisher, nil, nil)

	body := `{"type":"event_callback","event_id":"Ev123","event":{"type":"message","channel":"C042","user":"U777","text":"deploy please","ts":"1700000000.0001"}}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, slackRequest(t, secret, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != "slack.message" {
		t.Fatalf("expected publish to slack.message, got %v", publisher.topics)
	}

	event := publisher.events[0]
	if event.Provider != "slack" || event.Kind != "message-posted" {
		t.Fatalf("unexpected envelope: %+v", event)
	}
	if event.Repo != "C042" {
		t.Fatalf("expected channel as repo, got %q", event.Repo)
	}
	if event.RequestID != "Ev123" {
		t.Fatalf("expected event id in envelope, got %q", event.RequestID)
	}
	if event.Data["text"] != "deploy please" {
		t.Fatalf("expected extracted text, got %v", event.Data["text"])
	}
}

// TestSlackHandlerRejectsBadSignature tests that an invalid signature is
// rejected before parsing.
func TestSlackHandlerRejectsBadSignature(t *testing.T) {
	publisher := &capturePublisher{}
	handler := NewSlackHandler("slack-signing", nil, publisher, nil, nil)

	body := `{"type":"event_callback","event":{"type":"message"}}`
	req := slackRequest(t, "wrong-secret", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(publisher.topics) != 0 {
		t.Fatalf("expected no publishes, got %v", publisher.topics)
	}
}

// TestSlackHandlerRejectsMissingHeaders tests that a request without the
// Slack signature headers is rejected.
func TestSlackHandlerRejectsMissingHeaders(t *testing.T) {
	handler := NewSlackHandler("slack-signing", nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/slack", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

// TestSlackHandlerIgnoresOtherCallbackTypes tests that non-event
// callbacks are acknowledged without publishing.
func TestSlackHandlerIgnoresOtherCallbackTypes(t *testing.T) {
	const secret = "slack-signing"
	publisher := &capturePublisher{}
	handler := NewSlackHandler(secret, newTestRules(t), publisher, nil, nil)

	body := `{"type":"app_rate_limited","minute_rate_limited":1700000000}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, slackRequest(t, secret, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(publisher.topics) != 0 {
		t.Fatalf("expected no publishes, got %v", publisher.topics)
	}
}
