package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestRateLimitBlocksAfterBurst tests that requests beyond the burst are
// rejected with 429.
func TestRateLimitBlocksAfterBurst(t *testing.T) {
	handler := NewRateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), 1, 2, time.Minute)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhooks/github", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("expected first two requests to pass, got %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be limited, got %v", statuses)
	}
}

// TestRateLimitDisabled tests that a non-positive rps leaves the handler
// untouched.
func TestRateLimitDisabled(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if NewRateLimitHandler(inner, 0, 0, time.Minute) == nil {
		t.Fatalf("expected passthrough handler")
	}
}
