package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-workout-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// MetadataRepository persists the singleton per-device sync configuration row.
type MetadataRepository interface {
	// Get returns the metadata row, creating it lazily on first access with
	// a fresh device id and sync disabled.
	Get(ctx context.Context) (models.SyncMetadata, error)

	// Save overwrites the metadata row. The row is never deleted.
	Save(ctx context.Context, meta models.SyncMetadata) error
}

// OutboxRepository is the durable FIFO log of pending local mutations.
// Enqueueing happens inside entity transactions and is therefore owned by
// [EntityRepository]; this interface covers draining and bookkeeping.
type OutboxRepository interface {
	// PeekAll returns pending items ordered by created_at ascending. When a
	// dead-letter ceiling is configured, items at or over the ceiling are
	// excluded (they stay in the table for inspection).
	PeekAll(ctx context.Context) ([]models.OutboxItem, error)

	// PendingForEntity returns the queued items for one entity in FIFO order.
	PendingForEntity(ctx context.Context, entityType models.EntityType, entityID string) ([]models.OutboxItem, error)

	// Remove deletes a successfully pushed item.
	Remove(ctx context.Context, itemID string) error

	// RemoveForEntity discards all queued items for an entity. Used when a
	// conflict resolves Remote or a remote tombstone arrives, so stale local
	// edits are not pushed over newer remote state.
	RemoveForEntity(ctx context.Context, entityType models.EntityType, entityID string) error

	// RecordAttempt increments the attempt counter and stamps the attempt
	// time, leaving the item queued for retry.
	RecordAttempt(ctx context.Context, itemID string, at time.Time) error

	// DeadLetters returns items that reached the configured attempts ceiling.
	// Always empty when no ceiling is configured.
	DeadLetters(ctx context.Context) ([]models.OutboxItem, error)
}

// ConflictFilter narrows GetAll results for the review surface.
type ConflictFilter struct {
	EntityType models.EntityType
	Resolution models.Resolution
	Limit      uint64
}

// ConflictRepository is the append-only log of detected divergences.
type ConflictRepository interface {
	// Append stores a resolved (or pending) conflict with both snapshots.
	Append(ctx context.Context, conflict models.SyncConflict) error

	// GetAll returns conflicts newest-first, optionally filtered.
	GetAll(ctx context.Context, filter ConflictFilter) ([]models.SyncConflict, error)

	// Prune removes conflicts created before olderThan and reports how many
	// rows were deleted.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// EntityRepository stores the synchronized view of domain entities and owns
// every transaction that must span the entities table and the sync queue.
type EntityRepository interface {
	// Get returns one entity row, including tombstoned ones.
	Get(ctx context.Context, entityType models.EntityType, entityID string) (models.Entity, error)

	// GetAll returns all live (non-deleted) entities of one type.
	GetAll(ctx context.Context, entityType models.EntityType) ([]models.Entity, error)

	// SaveWithOutbox upserts the entity and appends the outbox item in one
	// transaction: a crash can never leave a committed mutation without its
	// queue entry, nor vice versa.
	SaveWithOutbox(ctx context.Context, entity models.Entity, item models.OutboxItem) error

	// DeleteWithOutbox tombstones the entity and appends the delete outbox
	// item in one transaction.
	DeleteWithOutbox(ctx context.Context, entityType models.EntityType, entityID string, item models.OutboxItem) error

	// ApplyRemote upserts an entity from a pulled remote record. When
	// discardPending is true the entity's queued outbox items are removed in
	// the same transaction (remote won the conflict).
	ApplyRemote(ctx context.Context, entity models.Entity, discardPending bool) error

	// ApplyRemoteDelete removes the local entity for a remote tombstone and
	// discards its queued outbox items in the same transaction.
	ApplyRemoteDelete(ctx context.Context, entityType models.EntityType, entityID string) error
}
