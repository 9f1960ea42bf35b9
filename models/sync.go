// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// SyncMetadata is the per-device synchronization state. Exactly one row
// exists in the sync_metadata table; it is created lazily on first access
// with SyncEnabled=false and is only ever overwritten, never deleted.
type SyncMetadata struct {
	// DeviceID is a stable random identifier generated once per device.
	DeviceID string `json:"device_id"`

	// LastSyncTime is the completion time of the last successful full sync.
	// Nil means the device has never completed a sync.
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`

	// RemoteCursor is the opaque change token returned by the remote store.
	// An empty cursor means "full resync required": the next pull must fetch
	// the entire remote corpus instead of an incremental change set.
	RemoteCursor string `json:"remote_cursor,omitempty"`

	// SyncEnabled gates the orchestrator: when false every sync run is a no-op.
	SyncEnabled bool `json:"sync_enabled"`
}

// SyncStatus classifies the outcome of a full sync run for user-facing
// messaging: "nothing to sync", "partial success with N conflicts" and
// "failed, will retry" drive different UI states.
type SyncStatus string

const (
	// SyncStatusOK means the run completed and moved at least one record.
	SyncStatusOK SyncStatus = "ok"

	// SyncStatusNoop means the run completed with nothing to push or pull.
	SyncStatusNoop SyncStatus = "noop"

	// SyncStatusPartial means the run completed but some items failed or
	// conflicts were detected; failed items stay queued for retry.
	SyncStatusPartial SyncStatus = "partial"

	// SyncStatusFailed means the run hit a hard failure (e.g. remote
	// unavailable); nothing was lost and the run will be retried.
	SyncStatusFailed SyncStatus = "failed"

	// SyncStatusDisabled means sync is turned off for this device.
	SyncStatusDisabled SyncStatus = "disabled"

	// SyncStatusAlreadyRunning is reported when a full sync is requested
	// while another run holds the single-flight guard.
	SyncStatusAlreadyRunning SyncStatus = "already_running"
)

// SyncResult is the summary returned by a full sync run. It is the only
// error-reporting surface exposed to the application layer.
type SyncResult struct {
	Status        SyncStatus    `json:"status"`
	PushedCount   int           `json:"pushed_count"`
	PulledCount   int           `json:"pulled_count"`
	ConflictCount int           `json:"conflict_count"`
	Failures      []PushFailure `json:"failures,omitempty"`

	// Err is the first hard failure encountered during the run. Per-item
	// transient failures are aggregated into Failures instead.
	Err error `json:"-"`
}

// PushFailure describes a single outbox item that could not be pushed.
type PushFailure struct {
	ItemID     string     `json:"item_id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Reason     string     `json:"reason"`
}
