package connector

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"agenthooks/pkg/hook"
)

func slackHeaders(body []byte, signingSecret string) map[string]string {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(signingSecret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	return map[string]string{
		"x-slack-request-timestamp": timestamp,
		"x-slack-signature":         "v0=" + hex.EncodeToString(mac.Sum(nil)),
	}
}

// TestSlackHandleWebhookChallenge tests the url_verification handshake.
func TestSlackHandleWebhookChallenge(t *testing.T) {
	const secret = "slack-signing"
	connector := NewSlack(SlackConfig{SigningSecret: secret})

	body := []byte(`{"type":"url_verification","challenge":"xyzzy"}`)
	result := connector.HandleWebhook(body, slackHeaders(body, secret), nil)
	if !result.OK() {
		t.Fatalf("expected success, got %v", result)
	}
	if result["challenge"] != "xyzzy" {
		t.Fatalf("expected challenge echoed, got %v", result)
	}
}

// TestSlackHandleWebhookDispatch tests that an event_callback message is
// normalized and dispatched.
func TestSlackHandleWebhookDispatch(t *testing.T) {
	const secret = "slack-signing"
	connector := NewSlack(SlackConfig{SigningSecret: secret})

	body := []byte(`{"type":"event_callback","event":{"type":"app_mention","channel":"C042","user":"U1","text":"hi"}}`)
	handlers := hook.HandlerTable{
		hook.KindAppMention: func(evt hook.Event) hook.Result {
			return hook.Ok(map[string]interface{}{"channel": evt.Repo})
		},
	}

	result := connector.HandleWebhook(body, slackHeaders(body, secret), handlers)
	if !result.OK() {
		t.Fatalf("expected success, got %v", result)
	}
	if result["channel"] != "C042" {
		t.Fatalf("expected channel from event, got %v", result)
	}
}

// TestSlackHandleWebhookInvalidSignature tests rejection before parsing.
func TestSlackHandleWebhookInvalidSignature(t *testing.T) {
	connector := NewSlack(SlackConfig{SigningSecret: "slack-signing"})

	body := []byte(`{"type":"event_callback"}`)
	result := connector.HandleWebhook(body, slackHeaders(body, "wrong"), nil)
	if result.OK() {
		t.Fatalf("expected failure, got %v", result)
	}
	if result.Err() != "invalid signature" {
		t.Fatalf("unexpected error: %q", result.Err())
	}
}

// TestSlackHandleWebhookMissingHeaders tests that absent signature
// headers fail closed.
func TestSlackHandleWebhookMissingHeaders(t *testing.T) {
	connector := NewSlack(SlackConfig{SigningSecret: "slack-signing"})

	result := connector.HandleWebhook([]byte(`{}`), map[string]string{}, nil)
	if result.OK() {
		t.Fatalf("expected failure for missing headers")
	}
}
