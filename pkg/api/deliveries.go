// Package api exposes the read-only operational endpoints: the delivery
// log listing used to inspect what the gateway has accepted.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agenthooks/pkg/storage"
)

// DeliveriesHandler lists recorded webhook deliveries with optional
// provider/kind/repo/since filters.
type DeliveriesHandler struct {
	Store  storage.DeliveryStore
	Logger *log.Logger
}

func (h *DeliveriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.Store == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}

	filter := storage.DeliveryFilter{
		Provider: strings.TrimSpace(r.URL.Query().Get("provider")),
		Kind:     strings.TrimSpace(r.URL.Query().Get("kind")),
		Repo:     strings.TrimSpace(r.URL.Query().Get("repo")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "since must be RFC3339", http.StatusBadRequest)
			return
		}
		filter.Since = &since
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	records, err := h.Store.ListDeliveries(r.Context(), filter)
	if err != nil {
		http.Error(w, "list deliveries failed", http.StatusInternalServerError)
		if h.Logger != nil {
			h.Logger.Printf("list deliveries failed: %v", err)
		}
		return
	}

	writeJSON(w, records)
}

// DeliveryHandler fetches one delivery by provider and delivery id.
type DeliveryHandler struct {
	Store  storage.DeliveryStore
	Logger *log.Logger
}

func (h *DeliveryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.Store == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}

	provider := strings.TrimSpace(r.URL.Query().Get("provider"))
	deliveryID := strings.TrimSpace(r.URL.Query().Get("id"))
	if provider == "" || deliveryID == "" {
		http.Error(w, "missing provider or id", http.StatusBadRequest)
		return
	}

	record, err := h.Store.GetDelivery(r.Context(), provider, deliveryID)
	if err != nil {
		http.Error(w, "delivery lookup failed", http.StatusInternalServerError)
		if h.Logger != nil {
			h.Logger.Printf("delivery lookup failed: %v", err)
		}
		return
	}
	if record == nil {
		http.Error(w, "delivery not found", http.StatusNotFound)
		return
	}

	writeJSON(w, record)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
