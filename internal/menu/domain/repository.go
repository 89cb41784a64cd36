package domain

import "context"

// MenuRepository is the local menu store. UpsertAll is the only mutation.
type MenuRepository interface {
	// UpsertAll replaces rows by id in a single transaction: all rows apply or none do.
	UpsertAll(ctx context.Context, entries []MenuEntry) error
	// List returns the entries matching filter ordered by id ascending.
	List(ctx context.Context, filter Filter) ([]MenuEntry, error)
	Get(ctx context.Context, id int64) (*MenuEntry, error)
	// Categories returns the distinct categories in ascending order.
	Categories(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
}

// SyncStateRepository persists the outcome of the latest sync pass.
type SyncStateRepository interface {
	Load(ctx context.Context) (*SyncState, error)
	Save(ctx context.Context, state *SyncState) error
}

// SnapshotReadRepository is an external read model receiving the full menu after each pass.
type SnapshotReadRepository interface {
	Save(ctx context.Context, entries []MenuEntry) error
}

// MenuSource fetches the raw remote menu document.
type MenuSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// MenuDecoder turns a raw menu document into entries.
type MenuDecoder interface {
	Decode(payload []byte) ([]MenuEntry, error)
}
