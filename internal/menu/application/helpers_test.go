package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wyfcoding/littlelemon/internal/menu/domain"
	"github.com/wyfcoding/littlelemon/internal/menu/infrastructure/persistence/gormdb"
	pkgdb "github.com/wyfcoding/littlelemon/pkg/db"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stores struct {
	menu  domain.MenuRepository
	state domain.SyncStateRepository
}

func openStores(t *testing.T) stores {
	t.Helper()
	conn, err := pkgdb.Init(pkgdb.Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "menu.db")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if _, err := gormdb.Migrate(context.Background(), conn.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return stores{
		menu:  gormdb.NewMenuRepository(conn.DB, 0),
		state: gormdb.NewSyncStateRepository(conn.DB),
	}
}

// stubSource returns its payloads in order, repeating the last one.
type stubSource struct {
	mu       sync.Mutex
	payloads []string
	err      error
	calls    int
}

func (s *stubSource) Fetch(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	i := s.calls - 1
	if i >= len(s.payloads) {
		i = len(s.payloads) - 1
	}
	return []byte(s.payloads[i]), nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// failingRepo rejects every upsert.
type failingRepo struct {
	domain.MenuRepository
}

func (failingRepo) UpsertAll(context.Context, []domain.MenuEntry) error {
	return errors.New("disk I/O error")
}

type recordingSnapshots struct {
	mu    sync.Mutex
	saved [][]domain.MenuEntry
}

func (r *recordingSnapshots) Save(_ context.Context, entries []domain.MenuEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, entries)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.MenuSyncedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := event.(domain.MenuSyncedEvent); ok && eventType == domain.MenuSyncedEventType {
		p.events = append(p.events, e)
	}
	return p.err
}

func entryIDs64(entries []domain.MenuEntry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
