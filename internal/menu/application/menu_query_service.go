package application

import (
	"context"

	"github.com/wyfcoding/littlelemon/internal/menu/domain"
)

// MenuQueryService is the read side of the menu cache. It never writes.
type MenuQueryService struct {
	repo      domain.MenuRepository
	stateRepo domain.SyncStateRepository
	views     *ViewHub
}

func NewMenuQueryService(
	repo domain.MenuRepository,
	stateRepo domain.SyncStateRepository,
	views *ViewHub,
) *MenuQueryService {
	return &MenuQueryService{
		repo:      repo,
		stateRepo: stateRepo,
		views:     views,
	}
}

// List returns the entries matching filter ordered by id.
func (s *MenuQueryService) List(ctx context.Context, filter domain.Filter) ([]domain.MenuEntry, error) {
	return s.repo.List(ctx, filter)
}

func (s *MenuQueryService) Get(ctx context.Context, id int64) (*domain.MenuEntry, error) {
	return s.repo.Get(ctx, id)
}

func (s *MenuQueryService) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// SyncState returns the outcome of the latest pass.
func (s *MenuQueryService) SyncState(ctx context.Context) (*domain.SyncState, error) {
	return s.stateRepo.Load(ctx)
}

// ObserveAll opens a live view of every entry.
func (s *MenuQueryService) ObserveAll(ctx context.Context) (*Subscription, error) {
	return s.Observe(ctx, domain.Filter{})
}

// ObserveByCategory opens a live view of one category, ignoring case.
func (s *MenuQueryService) ObserveByCategory(ctx context.Context, category string) (*Subscription, error) {
	return s.Observe(ctx, domain.Filter{Category: category})
}

// ObserveBySearch opens a live view of the entries whose title contains term, ignoring case.
func (s *MenuQueryService) ObserveBySearch(ctx context.Context, term string) (*Subscription, error) {
	return s.Observe(ctx, domain.Filter{Search: term})
}

// Observe opens a live view for an arbitrary filter.
func (s *MenuQueryService) Observe(ctx context.Context, filter domain.Filter) (*Subscription, error) {
	return s.views.Subscribe(ctx, filter)
}
