// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Entity is the sync engine's view of a local domain row: stable identity,
// the serialized payload, and the timestamps needed for conflict detection.
// Templates and sessions share one table keyed by (entity_type, entity_id);
// the payload column holds the type-specific JSON document.
type Entity struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Payload    []byte     `json:"payload"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// RemoteModifiedAt is the ModificationDate of the remote record this row
	// was last reconciled with. Nil for rows that were never pulled. Applying
	// the same remote record twice is a no-op because the stored value
	// already matches.
	RemoteModifiedAt *time.Time `json:"remote_modified_at,omitempty"`

	// Deleted marks a locally tombstoned row awaiting (or mirroring) a
	// remote delete.
	Deleted bool `json:"deleted"`
}
