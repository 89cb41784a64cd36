package domain

import (
	"context"
	"time"
)

// MenuSyncedEventType identifies MenuSyncedEvent. It is also the default Kafka topic.
const MenuSyncedEventType = "menu.synced"

// MenuSyncedEvent is published after a pass committed rows to the store.
type MenuSyncedEvent struct {
	RunID      string    `json:"run_id"`
	Entries    int       `json:"entries"`
	IDs        []int64   `json:"ids"`
	Categories []string  `json:"categories"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventPublisher publishes domain events. The publisher decides where an
// event type is delivered.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, key string, event any) error
}
