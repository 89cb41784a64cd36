// Package gormdb implements the menu store and its bookkeeping tables with gorm.
package gormdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/wyfcoding/littlelemon/internal/menu/domain"
	pkgdb "github.com/wyfcoding/littlelemon/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Keys of the sync_configs table.
const (
	KeySchemaVersion   = "schema_version"
	KeyLastSyncAt      = "last_sync_at"
	KeyLastSyncStatus  = "last_sync_status"
	KeyLastSyncEntries = "last_sync_entries"
	KeyLastSyncRunID   = "last_sync_run_id"
	KeyLastSuccessAt   = "last_success_at"
)

// SyncConfig is one key/value bookkeeping row.
type SyncConfig struct {
	Key       string    `gorm:"column:key;primaryKey;type:varchar(64)"`
	Value     string    `gorm:"column:value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (SyncConfig) TableName() string { return "sync_configs" }

func getConfig(ctx context.Context, db *gorm.DB, key string) (string, bool, error) {
	var row SyncConfig
	err := db.WithContext(ctx).Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read sync config %q: %w", key, err)
	}
	return row.Value, true, nil
}

func putConfigs(ctx context.Context, db *gorm.DB, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]SyncConfig, 0, len(values))
	for k, v := range values {
		rows = append(rows, SyncConfig{Key: k, Value: v, UpdatedAt: now})
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
}

type syncStateRepository struct{ db *gorm.DB }

// NewSyncStateRepository stores the latest sync outcome in sync_configs.
func NewSyncStateRepository(db *gorm.DB) domain.SyncStateRepository {
	return &syncStateRepository{db: db}
}

func (r *syncStateRepository) Load(ctx context.Context) (*domain.SyncState, error) {
	var rows []SyncConfig
	err := r.db.WithContext(ctx).
		Where(clause.IN{Column: clause.Column{Name: "key"}, Values: []any{
			KeyLastSyncAt, KeyLastSyncStatus, KeyLastSyncEntries, KeyLastSyncRunID, KeyLastSuccessAt,
		}}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load sync state: %w", err)
	}

	state := &domain.SyncState{Status: domain.SyncStatusNever}
	for _, row := range rows {
		switch row.Key {
		case KeyLastSyncStatus:
			state.Status = domain.SyncStatus(row.Value)
		case KeyLastSyncRunID:
			state.RunID = row.Value
		case KeyLastSyncEntries:
			state.Entries, _ = strconv.Atoi(row.Value)
		case KeyLastSyncAt:
			state.LastSyncAt = parseTime(row.Value)
		case KeyLastSuccessAt:
			state.LastSuccessAt = parseTime(row.Value)
		}
	}
	return state, nil
}

func (r *syncStateRepository) Save(ctx context.Context, state *domain.SyncState) error {
	values := map[string]string{
		KeyLastSyncStatus:  string(state.Status),
		KeyLastSyncRunID:   state.RunID,
		KeyLastSyncEntries: strconv.Itoa(state.Entries),
		KeyLastSyncAt:      formatTime(state.LastSyncAt),
	}
	// a failed pass keeps the previous success time
	if !state.LastSuccessAt.IsZero() {
		values[KeyLastSuccessAt] = formatTime(state.LastSuccessAt)
	}
	return pkgdb.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := putConfigs(ctx, tx, values); err != nil {
			return fmt.Errorf("save sync state: %w", err)
		}
		return nil
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
