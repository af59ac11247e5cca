package deliveries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agenthooks/pkg/storage"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Config mirrors the storage configuration for the deliveries table.
type Config struct {
	Driver      string
	DSN         string
	Table       string
	AutoMigrate bool
	ListLimit   int
}

// Store implements storage.DeliveryStore on top of GORM.
type Store struct {
	db        *gorm.DB
	table     string
	listLimit int
}

type row struct {
	Provider    string    `gorm:"column:provider;size:32;not null;uniqueIndex:idx_provider_delivery"`
	DeliveryID  string    `gorm:"column:delivery_id;size:128;not null;uniqueIndex:idx_provider_delivery"`
	Kind        string    `gorm:"column:kind;size:64;index"`
	Action      string    `gorm:"column:action;size:64"`
	Repo        string    `gorm:"column:repo;size:255;index"`
	Topics      string    `gorm:"column:topics;size:1024"`
	PayloadJSON string    `gorm:"column:payload_json;type:text"`
	ReceivedAt  time.Time `gorm:"column:received_at;index"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Open creates a GORM-backed delivery store.
func Open(cfg Config) (*Store, error) {
	if cfg.Driver == "" {
		return nil, errors.New("storage driver is required")
	}
	if cfg.DSN == "" {
		return nil, errors.New("storage dsn is required")
	}
	driver := normalizeDriver(cfg.Driver)
	if driver == "" {
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}

	gormDB, err := openGorm(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	table := cfg.Table
	if table == "" {
		table = "agenthooks_deliveries"
	}
	listLimit := cfg.ListLimit
	if listLimit <= 0 {
		listLimit = 100
	}
	store := &Store{
		db:        gormDB,
		table:     table,
		listLimit: listLimit,
	}
	if cfg.AutoMigrate {
		if err := store.migrate(); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// Close closes the underlying DB connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordDelivery inserts or updates a delivery record. Redeliveries keep
// the original created_at and refresh everything else.
func (s *Store) RecordDelivery(ctx context.Context, record storage.DeliveryRecord) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if record.Provider == "" {
		return errors.New("provider is required")
	}
	if record.DeliveryID == "" {
		return errors.New("delivery id is required")
	}
	now := time.Now().UTC()
	if record.ReceivedAt.IsZero() {
		record.ReceivedAt = now
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	data := toRow(record)
	return s.tableDB().
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "delivery_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "action", "repo", "topics", "payload_json", "received_at", "updated_at"}),
		}).
		Create(&data).Error
}

// GetDelivery fetches a single delivery record, or nil when absent.
func (s *Store) GetDelivery(ctx context.Context, provider, deliveryID string) (*storage.DeliveryRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	var data row
	err := s.tableDB().
		WithContext(ctx).
		Where("provider = ? AND delivery_id = ?", provider, deliveryID).
		Take(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record := fromRow(data)
	return &record, nil
}

// ListDeliveries lists deliveries matching the filter, newest first.
func (s *Store) ListDeliveries(ctx context.Context, filter storage.DeliveryFilter) ([]storage.DeliveryRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	query := s.tableDB().WithContext(ctx)
	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Repo != "" {
		query = query.Where("repo = ?", filter.Repo)
	}
	if filter.Since != nil {
		query = query.Where("received_at >= ?", filter.Since.UTC())
	}
	limit := filter.Limit
	if limit <= 0 || limit > s.listLimit {
		limit = s.listLimit
	}

	var data []row
	err := query.Order("received_at desc").Limit(limit).Find(&data).Error
	if err != nil {
		return nil, err
	}
	records := make([]storage.DeliveryRecord, 0, len(data))
	for _, item := range data {
		records = append(records, fromRow(item))
	}
	return records, nil
}

func (s *Store) migrate() error {
	return s.tableDB().AutoMigrate(&row{})
}

func (s *Store) tableDB() *gorm.DB {
	return s.db.Table(s.table)
}

func toRow(record storage.DeliveryRecord) row {
	return row{
		Provider:    record.Provider,
		DeliveryID:  record.DeliveryID,
		Kind:        record.Kind,
		Action:      record.Action,
		Repo:        record.Repo,
		Topics:      record.Topics,
		PayloadJSON: record.PayloadJSON,
		ReceivedAt:  record.ReceivedAt,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func fromRow(data row) storage.DeliveryRecord {
	return storage.DeliveryRecord{
		Provider:    data.Provider,
		DeliveryID:  data.DeliveryID,
		Kind:        data.Kind,
		Action:      data.Action,
		Repo:        data.Repo,
		Topics:      data.Topics,
		PayloadJSON: data.PayloadJSON,
		ReceivedAt:  data.ReceivedAt,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

func normalizeDriver(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "postgres", "postgresql", "pgx":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return ""
	}
}

func openGorm(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "mysql":
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}
