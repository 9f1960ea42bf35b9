// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// EntityType identifies the kind of domain entity a sync operation refers to.
type EntityType string

const (
	EntityTypeTemplate EntityType = "template"
	EntityTypeSession  EntityType = "session"
)

// KnownEntityTypes lists every entity type the engine synchronizes. Pull uses
// it to walk the full remote corpus when no cursor is available yet.
var KnownEntityTypes = []EntityType{EntityTypeTemplate, EntityTypeSession}

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityTypeTemplate, EntityTypeSession:
		return true
	}
	return false
}

// Operation is the kind of local mutation queued for transmission.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// OutboxItem is one pending local mutation awaiting transmission to the
// remote store. Items are appended in causal order and drained FIFO; an item
// is removed only after the remote call it represents succeeds, so delivery
// is at-least-once and relies on the remote store's upsert/idempotent-delete
// semantics to make retries harmless.
type OutboxItem struct {
	ID         string     `json:"id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Operation  Operation  `json:"operation"`

	// Payload is the JSON snapshot of the entity taken at enqueue time.
	Payload []byte `json:"payload,omitempty"`

	// Attempts counts failed push attempts. A failed attempt leaves the item
	// queued for retry.
	Attempts        int        `json:"attempts"`
	LastAttemptTime *time.Time `json:"last_attempt_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
