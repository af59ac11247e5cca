package storage

import (
	"context"
	"time"
)

// DeliveryRecord stores one accepted webhook delivery. Deliveries are
// keyed by (provider, delivery_id); redelivered webhooks update the
// existing row instead of inserting a duplicate.
type DeliveryRecord struct {
	Provider    string
	DeliveryID  string
	Kind        string
	Action      string
	Repo        string
	Topics      string
	PayloadJSON string
	ReceivedAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DeliveryFilter selects delivery rows. Zero-valued fields are ignored.
type DeliveryFilter struct {
	Provider string
	Kind     string
	Repo     string
	Since    *time.Time
	Limit    int
}

// DeliveryStore defines the persistence interface for webhook
// deliveries.
type DeliveryStore interface {
	RecordDelivery(ctx context.Context, record DeliveryRecord) error
	GetDelivery(ctx context.Context, provider, deliveryID string) (*DeliveryRecord, error)
	ListDeliveries(ctx context.Context, filter DeliveryFilter) ([]DeliveryRecord, error)
	Close() error
}
