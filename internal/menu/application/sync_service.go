// Package application orchestrates menu sync passes and serves the read side.
package application

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/littlelemon/internal/menu/domain"
	"github.com/wyfcoding/littlelemon/pkg/logger"
	"github.com/wyfcoding/littlelemon/pkg/metrics"
)

// SyncReport describes one sync pass.
type SyncReport struct {
	RunID  string            `json:"run_id"`
	Status domain.SyncStatus `json:"status"`
	// Decoded entries after duplicate ids collapsed
	Decoded int `json:"decoded"`
	// Written rows, zero unless the upsert committed
	Written    int       `json:"written"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// SyncService runs fetch, decode, normalise and upsert. Failures never
// propagate: they end the pass with a failed status and leave the store as it was.
type SyncService struct {
	source    domain.MenuSource
	decoder   domain.MenuDecoder
	repo      domain.MenuRepository
	stateRepo domain.SyncStateRepository
	// optional collaborators, nil when disabled
	snapshotRepo domain.SnapshotReadRepository
	publisher    domain.EventPublisher
	views        *ViewHub
	metrics      *metrics.Metrics
	logger       *slog.Logger

	// the store has a single writer
	runMu sync.Mutex

	hookMu sync.Mutex
	hooks  []func(SyncReport)
}

func NewSyncService(
	source domain.MenuSource,
	decoder domain.MenuDecoder,
	repo domain.MenuRepository,
	stateRepo domain.SyncStateRepository,
	snapshotRepo domain.SnapshotReadRepository,
	publisher domain.EventPublisher,
	views *ViewHub,
	m *metrics.Metrics,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		source:       source,
		decoder:      decoder,
		repo:         repo,
		stateRepo:    stateRepo,
		snapshotRepo: snapshotRepo,
		publisher:    publisher,
		views:        views,
		metrics:      m,
		logger:       logger,
	}
}

// OnComplete registers fn to be called with the report of every finished pass.
func (s *SyncService) OnComplete(fn func(SyncReport)) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Run performs one sync pass.
func (s *SyncService) Run(ctx context.Context) SyncReport {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	report := SyncReport{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	ctx = logger.WithRunID(ctx, report.RunID)
	log := logger.WithContext(ctx, s.logger)
	log.InfoContext(ctx, "menu sync started")

	payload, err := s.source.Fetch(ctx)
	if err != nil {
		log.WarnContext(ctx, "menu fetch failed, keeping cached menu", "error", err)
		return s.finish(ctx, log, report, domain.SyncStatusFetchFailed, err)
	}

	entries, err := s.decoder.Decode(payload)
	if err != nil {
		log.WarnContext(ctx, "menu decode failed, keeping cached menu", "error", err, "bytes", len(payload))
		return s.finish(ctx, log, report, domain.SyncStatusDecodeFailed, err)
	}

	entries = domain.NormalizeEntries(entries)
	report.Decoded = len(entries)
	if len(entries) == 0 {
		log.InfoContext(ctx, "remote menu is empty, nothing to write")
		return s.finish(ctx, log, report, domain.SyncStatusEmpty, nil)
	}

	if err := s.repo.UpsertAll(ctx, entries); err != nil {
		log.ErrorContext(ctx, "menu upsert failed, transaction rolled back", "error", err, "entries", len(entries))
		return s.finish(ctx, log, report, domain.SyncStatusStoreFailed, err)
	}
	report.Written = len(entries)

	// the pass has committed; side effects below are best-effort
	s.afterCommit(context.WithoutCancel(ctx), log, report, entries)
	return s.finish(ctx, log, report, domain.SyncStatusSucceeded, nil)
}

func (s *SyncService) afterCommit(ctx context.Context, log *slog.Logger, report SyncReport, entries []domain.MenuEntry) {
	if s.views != nil {
		s.views.Notify(ctx)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		log.WarnContext(ctx, "failed to count menu entries", "error", err)
	} else if s.metrics != nil {
		s.metrics.MenuEntries.Set(float64(total))
	}

	if s.snapshotRepo != nil {
		all, err := s.repo.List(ctx, domain.Filter{})
		if err == nil {
			err = s.snapshotRepo.Save(ctx, all)
		}
		if err != nil {
			log.WarnContext(ctx, "failed to update menu snapshot", "error", err)
		}
	}

	if s.publisher != nil {
		event := domain.MenuSyncedEvent{
			RunID:      report.RunID,
			Entries:    len(entries),
			IDs:        entryIDs(entries),
			Categories: distinctCategories(entries),
			Timestamp:  time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, domain.MenuSyncedEventType, report.RunID, event); err != nil {
			log.WarnContext(ctx, "failed to publish menu synced event", "error", err)
		}
	}
}

func (s *SyncService) finish(ctx context.Context, log *slog.Logger, report SyncReport, status domain.SyncStatus, err error) SyncReport {
	report.Status = status
	report.FinishedAt = time.Now().UTC()
	if err != nil {
		report.Error = err.Error()
	}

	// recorded even when the pass was cancelled
	ctx = context.WithoutCancel(ctx)
	state := &domain.SyncState{
		RunID:      report.RunID,
		Status:     status,
		Entries:    report.Written,
		LastSyncAt: report.FinishedAt,
	}
	if status.OK() {
		state.LastSuccessAt = report.FinishedAt
	}
	if err := s.stateRepo.Save(ctx, state); err != nil {
		log.WarnContext(ctx, "failed to record sync state", "error", err)
	}

	if s.metrics != nil {
		s.metrics.SyncRunsTotal.WithLabelValues(string(status)).Inc()
		s.metrics.SyncDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
		s.metrics.EntriesUpserted.Add(float64(report.Written))
	}

	log.InfoContext(ctx, "menu sync finished",
		"status", status,
		"decoded", report.Decoded,
		"written", report.Written,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	s.hookMu.Lock()
	hooks := append([]func(SyncReport){}, s.hooks...)
	s.hookMu.Unlock()
	for _, fn := range hooks {
		fn(report)
	}
	return report
}

// Start runs one pass and then, when interval is positive, one pass per
// interval until ctx is done. It blocks and always returns nil.
func (s *SyncService) Start(ctx context.Context, interval time.Duration) error {
	s.Run(ctx)
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Run(ctx)
		}
	}
}

func entryIDs(entries []domain.MenuEntry) []int64 {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func distinctCategories(entries []domain.MenuEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0)
	for _, e := range entries {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	sort.Strings(out)
	return out
}
