// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Resolution is the outcome recorded for a detected sync conflict.
type Resolution string

const (
	// ResolutionLocal means the local edit was newer; the local value was
	// kept and re-queued so it is eventually pushed over the remote one.
	ResolutionLocal Resolution = "local"

	// ResolutionRemote means the remote edit was newer (or the timestamps
	// were equal); the remote value overwrote local state and the stale
	// outbox entries for the entity were discarded.
	ResolutionRemote Resolution = "remote"

	// ResolutionPending marks a conflict that has been detected but not yet
	// resolved.
	ResolutionPending Resolution = "pending"
)

// SyncConflict is one detected divergence between a locally edited entity and
// a remotely edited one, together with how it was resolved. Rows are
// append-only: once Resolution is set the row is never mutated again, only
// pruned by the retention job. Both snapshots are kept so automatically
// resolved conflicts remain reviewable — silent overwrites are not acceptable.
type SyncConflict struct {
	ID             string     `json:"id"`
	EntityType     EntityType `json:"entity_type"`
	EntityID       string     `json:"entity_id"`
	LocalSnapshot  []byte     `json:"local_snapshot,omitempty"`
	RemoteSnapshot []byte     `json:"remote_snapshot,omitempty"`
	Resolution     Resolution `json:"resolution"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
