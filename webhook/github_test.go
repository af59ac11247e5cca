package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agenthooks/internal"
	"agenthooks/pkg/hook"
)

type capturePublisher struct {
	topics []string
	events []internal.Event
}

func (p *capturePublisher) Publish(ctx context.Context, topic string, event internal.Event) error {
	return p.PublishForDrivers(ctx, topic, event, nil)
}

func (p *capturePublisher) PublishForDrivers(ctx context.Context, topic string, event internal.Event, drivers []string) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error {
	return nil
}

func newTestRules(t *testing.T, rules ...internal.Rule) *internal.RuleEngine {
	t.Helper()
	engine, err := internal.NewRuleEngine(internal.RulesConfig{Rules: rules})
	if err != nil {
		t.Fatalf("new rule engine: %v", err)
	}
	return engine
}

func githubRequest(t *testing.T, secret, eventType, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", eventType)
	req.Header.Set("X-GitHub-Delivery", "delivery-1")
	req.Header.Set("X-Hub-Signature-256", hook.Sign([]byte(body), secret))
	return req
}

// TestGitHubHandlerPublishesMatchedTopics tests the accept path: a signed
// pull_request delivery is normalized and published for each matching
// rule.
func TestGitHubHandlerPublishesMatchedTopics(t *testing.T) {
	const secret = "topsecret"
	publisher := &capturePublisher{}
	rules := newTestRules(t, internal.Rule{When: `kind == "pr-opened"`, Emit: "pr.opened"})
	handler := NewGitHubHandler(secret, rules, publisher, nil, nil)

	body := `{"action":"opened","pull_request":{"number":7,"title":"Add parser","user":{"login":"octocat"}},"repository":{"full_name":"octo/hello"}}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, githubRequest(t, secret, "pull_request", body))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != "pr.opened" {
		t.Fatalf("expected publish to pr.opened, got %v", publisher.topics)
	}

	event := publisher.events[0]
	if event.Kind != "pr-opened" || event.Repo != "octo/hello" {
		t.Fatalf("unexpected envelope: %+v", event)
	}
	if event.RequestID != "delivery-1" {
		t.Fatalf("expected delivery id in envelope, got %q", event.RequestID)
	}
	if event.Data["number"] != float64(7) {
		t.Fatalf("expected extracted number, got %v", event.Data["number"])
	}

	var response map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if response["kind"] != "pr-opened" {
		t.Fatalf("expected kind in response, got %v", response["kind"])
	}
}

// TestGitHubHandlerRejectsBadSignature tests that a tampered body is
// rejected with 401 before any publishing happens.
func TestGitHubHandlerRejectsBadSignature(t *testing.T) {
	const secret = "topsecret"
	publisher := &capturePublisher{}
	rules := newTestRules(t, internal.Rule{When: `kind == "push"`, Emit: "push"})
	handler := NewGitHubHandler(secret, rules, publisher, nil, nil)

	body := `{"ref":"refs/heads/main"}`
	req := githubRequest(t, secret, "push", body)
	req.Header.Set("X-Hub-Signature-256", hook.Sign([]byte(body+"x"), secret))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(publisher.topics) != 0 {
		t.Fatalf("expected no publishes, got %v", publisher.topics)
	}
}

// TestGitHubHandlerRejectsMissingSignature tests that an unsigned request
// is rejected.
func TestGitHubHandlerRejectsMissingSignature(t *testing.T) {
	handler := NewGitHubHandler("topsecret", nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

// TestGitHubHandlerPing tests that the ping event is acknowledged without
// publishing.
func TestGitHubHandlerPing(t *testing.T) {
	const secret = "topsecret"
	publisher := &capturePublisher{}
	handler := NewGitHubHandler(secret, newTestRules(t), publisher, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, githubRequest(t, secret, "ping", `{"zen":"Keep it logically awesome."}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(publisher.topics) != 0 {
		t.Fatalf("expected no publishes for ping, got %v", publisher.topics)
	}
}

// TestGitHubHandlerUnknownEventStillAccepted tests that an unrecognized
// event type classifies as unknown and is still accepted.
func TestGitHubHandlerUnknownEventStillAccepted(t *testing.T) {
	const secret = "topsecret"
	publisher := &capturePublisher{}
	rules := newTestRules(t, internal.Rule{When: `kind == "unknown"`, Emit: "events.unknown"})
	handler := NewGitHubHandler(secret, rules, publisher, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, githubRequest(t, secret, "watch", `{"action":"started"}`))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != "events.unknown" {
		t.Fatalf("expected unknown topic, got %v", publisher.topics)
	}
}

// TestGitHubHandlerMethodNotAllowed tests that GET requests are refused.
func TestGitHubHandlerMethodNotAllowed(t *testing.T) {
	handler := NewGitHubHandler("topsecret", nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/github", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

// TestGitHubHandlerBadJSON tests that a signed but malformed body is a
// 400.
func TestGitHubHandlerBadJSON(t *testing.T) {
	const secret = "topsecret"
	handler := NewGitHubHandler(secret, nil, nil, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, githubRequest(t, secret, "push", `{not-json`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
