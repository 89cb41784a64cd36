package gormdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wyfcoding/littlelemon/internal/menu/domain"
	pkgdb "github.com/wyfcoding/littlelemon/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultBatchSize = 200

type menuRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewMenuRepository returns the gorm-backed menu store.
func NewMenuRepository(db *gorm.DB, batchSize int) domain.MenuRepository {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &menuRepository{db: db, batchSize: batchSize}
}

func (r *menuRepository) UpsertAll(ctx context.Context, entries []domain.MenuEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]domain.MenuEntry, len(entries))
	copy(rows, entries)
	for i := range rows {
		rows[i].RefreshKeys()
	}

	return pkgdb.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		err := tx.Session(&gorm.Session{SkipDefaultTransaction: true}).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).
			CreateInBatches(&rows, r.batchSize).Error
		if err != nil {
			return fmt.Errorf("upsert %d menu entries: %w", len(rows), err)
		}
		return nil
	})
}

func (r *menuRepository) List(ctx context.Context, filter domain.Filter) ([]domain.MenuEntry, error) {
	q := r.db.WithContext(ctx).Model(&domain.MenuEntry{})
	if filter.Category != "" {
		q = q.Where("category_key = ?", domain.FoldKey(filter.Category))
	}
	if filter.Search != "" {
		q = q.Where("title_key LIKE ? ESCAPE '!'", "%"+escapeLike(domain.FoldKey(filter.Search))+"%")
	}

	entries := make([]domain.MenuEntry, 0)
	if err := q.Order("id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list menu entries: %w", err)
	}
	return entries, nil
}

func (r *menuRepository) Get(ctx context.Context, id int64) (*domain.MenuEntry, error) {
	var entry domain.MenuEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get menu entry %d: %w", id, err)
	}
	return &entry, nil
}

// Categories returns one label per case-folded category, the smallest raw
// spelling when several differ only in case.
func (r *menuRepository) Categories(ctx context.Context) ([]string, error) {
	categories := make([]string, 0)
	err := r.db.WithContext(ctx).Model(&domain.MenuEntry{}).
		Group("category_key").
		Order("category_key ASC").
		Pluck("MIN(category)", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *menuRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.MenuEntry{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count menu entries: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike quotes LIKE wildcards with '!', which behaves the same on every supported dialect.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
