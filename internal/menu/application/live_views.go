package application

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/wyfcoding/littlelemon/internal/menu/domain"
	pkglogger "github.com/wyfcoding/littlelemon/pkg/logger"
	"github.com/wyfcoding/littlelemon/pkg/metrics"
)

// ErrHubClosed is returned by Subscribe after Close.
var ErrHubClosed = errors.New("live view hub closed")

// ViewHub fans committed store changes out to live views. Each subscriber
// holds a filter and receives the full, freshly queried snapshot for it.
type ViewHub struct {
	repo    domain.MenuRepository
	metrics *metrics.Metrics
	logger  *slog.Logger

	// notifyMu orders initial snapshots and notifications
	notifyMu sync.Mutex

	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
}

func NewViewHub(repo domain.MenuRepository, m *metrics.Metrics, logger *slog.Logger) *ViewHub {
	return &ViewHub{
		repo:    repo,
		metrics: m,
		logger:  logger,
		subs:    make(map[uint64]*Subscription),
	}
}

// Subscribe registers a live view and queues its initial snapshot. The
// subscription ends when ctx is done or Close is called.
func (h *ViewHub) Subscribe(ctx context.Context, filter domain.Filter) (*Subscription, error) {
	h.notifyMu.Lock()
	defer h.notifyMu.Unlock()

	snapshot, err := h.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.nextID++
	sub := newSubscription(h, h.nextID, filter)
	h.subs[sub.id] = sub
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.LiveSubscribers.Inc()
	}
	sub.offer(snapshot)

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

// Notify re-queries every distinct filter once and pushes the results.
// Callers invoke it after a transaction has committed.
func (h *ViewHub) Notify(ctx context.Context) {
	h.notifyMu.Lock()
	defer h.notifyMu.Unlock()

	h.mu.Lock()
	groups := make(map[domain.Filter][]*Subscription)
	for _, sub := range h.subs {
		groups[sub.filter] = append(groups[sub.filter], sub)
	}
	h.mu.Unlock()

	for filter, subs := range groups {
		snapshot, err := h.repo.List(ctx, filter)
		if err != nil {
			pkglogger.WithContext(ctx, h.logger).WarnContext(ctx, "failed to refresh live view", "error", err,
				"category", filter.Category, "search", filter.Search)
			continue
		}
		for _, sub := range subs {
			sub.offer(slices.Clone(snapshot))
		}
	}
}

// Len returns the number of open subscriptions.
func (h *ViewHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription and rejects new ones.
func (h *ViewHub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

func (h *ViewHub) remove(id uint64) {
	h.mu.Lock()
	_, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()

	if ok && h.metrics != nil {
		h.metrics.LiveSubscribers.Dec()
	}
}

// Subscription is one live view. C holds at most one pending snapshot: a
// newer snapshot replaces an unread one. C is closed when the view ends.
type Subscription struct {
	C <-chan []domain.MenuEntry

	hub    *ViewHub
	id     uint64
	filter domain.Filter
	ch     chan []domain.MenuEntry
	done   chan struct{}

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

func newSubscription(h *ViewHub, id uint64, filter domain.Filter) *Subscription {
	ch := make(chan []domain.MenuEntry, 1)
	return &Subscription{
		C:      ch,
		hub:    h,
		id:     id,
		filter: filter,
		ch:     ch,
		done:   make(chan struct{}),
	}
}

func (s *Subscription) Filter() domain.Filter { return s.filter }

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.hub.remove(s.id)
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		close(s.done)
	})
}

func (s *Subscription) offer(snapshot []domain.MenuEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snapshot
}
