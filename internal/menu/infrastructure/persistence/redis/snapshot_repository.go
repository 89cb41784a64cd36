// Package redis projects the synced menu into a Redis read model.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/littlelemon/internal/menu/domain"
)

const (
	snapshotKey    = "littlelemon:menu:snapshot"
	categoryPrefix = "littlelemon:menu:category:"
)

// jsonStore is the subset of *cache.RedisCache used here.
type jsonStore interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
}

// MenuSnapshot is the value stored under each key.
type MenuSnapshot struct {
	Entries   []domain.MenuEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type SnapshotRedisRepository struct {
	store jsonStore
	ttl   time.Duration
}

// NewSnapshotRedisRepository creates the menu read model. A zero ttl keeps keys forever.
func NewSnapshotRedisRepository(store jsonStore, ttl time.Duration) *SnapshotRedisRepository {
	return &SnapshotRedisRepository{store: store, ttl: ttl}
}

// Save writes the full menu and one list per category.
func (r *SnapshotRedisRepository) Save(ctx context.Context, entries []domain.MenuEntry) error {
	now := time.Now().UTC()
	if err := r.store.SetJSON(ctx, snapshotKey, MenuSnapshot{Entries: entries, UpdatedAt: now}, r.ttl); err != nil {
		return fmt.Errorf("failed to save menu snapshot: %w", err)
	}

	byCategory := make(map[string][]domain.MenuEntry)
	for _, e := range entries {
		key := domain.FoldKey(e.Category)
		byCategory[key] = append(byCategory[key], e)
	}
	for key, group := range byCategory {
		if err := r.store.SetJSON(ctx, categoryPrefix+key, MenuSnapshot{Entries: group, UpdatedAt: now}, r.ttl); err != nil {
			return fmt.Errorf("failed to save category %q snapshot: %w", key, err)
		}
	}
	return nil
}

// Get returns the full menu snapshot, or nil when none was projected yet.
func (r *SnapshotRedisRepository) Get(ctx context.Context) (*MenuSnapshot, error) {
	return r.get(ctx, snapshotKey)
}

// GetByCategory returns the snapshot of one category, ignoring case.
func (r *SnapshotRedisRepository) GetByCategory(ctx context.Context, category string) (*MenuSnapshot, error) {
	return r.get(ctx, categoryPrefix+domain.FoldKey(category))
}

func (r *SnapshotRedisRepository) get(ctx context.Context, key string) (*MenuSnapshot, error) {
	var snap MenuSnapshot
	found, err := r.store.GetJSON(ctx, key, &snap)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu snapshot from redis: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &snap, nil
}
