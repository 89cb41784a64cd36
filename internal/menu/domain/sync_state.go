package domain

import "time"

// SyncStatus is the outcome of a sync pass.
type SyncStatus string

const (
	SyncStatusNever        SyncStatus = "never"
	SyncStatusSucceeded    SyncStatus = "succeeded"
	SyncStatusEmpty        SyncStatus = "empty"
	SyncStatusFetchFailed  SyncStatus = "fetch_failed"
	SyncStatusDecodeFailed SyncStatus = "decode_failed"
	SyncStatusStoreFailed  SyncStatus = "store_failed"
)

// OK reports whether the pass left the cache consistent with the remote menu.
func (s SyncStatus) OK() bool {
	return s == SyncStatusSucceeded || s == SyncStatusEmpty
}

// SyncState is the persisted record of the latest pass.
type SyncState struct {
	RunID  string     `json:"run_id,omitempty"`
	Status SyncStatus `json:"status"`
	// Entries written by the latest pass
	Entries       int       `json:"entries"`
	LastSyncAt    time.Time `json:"last_sync_at,omitzero"`
	LastSuccessAt time.Time `json:"last_success_at,omitzero"`
}
