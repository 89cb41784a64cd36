package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/wyfcoding/littlelemon/internal/menu/domain"
	menuredis "github.com/wyfcoding/littlelemon/internal/menu/infrastructure/persistence/redis"
)

type memoryStore map[string][]byte

func (m memoryStore) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	data, ok := m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m memoryStore) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m[key] = data
	return nil
}

func TestShowSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := menuredis.NewSnapshotRedisRepository(memoryStore{}, 0)

	cmd := &cobra.Command{}
	if err := showSnapshot(ctx, cmd, repo, ""); !errors.Is(err, errNoSnapshot) {
		t.Fatalf("empty read model err = %v, want errNoSnapshot", err)
	}

	err := repo.Save(ctx, []domain.MenuEntry{
		{ID: 1, Title: "Soup", Category: "Starters"},
		{ID: 2, Title: "Cake", Category: "Desserts"},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	tests := []struct {
		name     string
		category string
		wantIDs  []int64
	}{
		{"whole menu", "", []int64{1, 2}},
		{"category ignores case", "DESSERTS", []int64{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetOut(&out)
			if err := showSnapshot(ctx, cmd, repo, tt.category); err != nil {
				t.Fatalf("showSnapshot: %v", err)
			}
			var snap menuredis.MenuSnapshot
			if err := json.Unmarshal(out.Bytes(), &snap); err != nil {
				t.Fatalf("decode output: %v", err)
			}
			if len(snap.Entries) != len(tt.wantIDs) {
				t.Fatalf("entries = %+v, want ids %v", snap.Entries, tt.wantIDs)
			}
			for i, id := range tt.wantIDs {
				if snap.Entries[i].ID != id {
					t.Errorf("entries[%d].ID = %d, want %d", i, snap.Entries[i].ID, id)
				}
			}
		})
	}

	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := showSnapshot(ctx, cmd, repo, "drinks"); !errors.Is(err, errNoSnapshot) {
		t.Errorf("unknown category err = %v, want errNoSnapshot", err)
	}
}
