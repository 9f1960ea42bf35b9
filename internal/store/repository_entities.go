package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/models"
)

// entityRepository is the SQLite-backed implementation of [EntityRepository].
// It owns every transaction that spans the entities table and the sync queue:
// a local mutation and its outbox entry commit or roll back together, and a
// pulled remote record and the discard of stale queue entries do the same.
type entityRepository struct {
	*DB
	logger *logger.Logger
}

func NewEntityRepository(db *DB, logger *logger.Logger) EntityRepository {
	return &entityRepository{
		DB:     db,
		logger: logger,
	}
}

// Get returns one entity row, including tombstoned ones.
func (e *entityRepository) Get(ctx context.Context, entityType models.EntityType, entityID string) (models.Entity, error) {
	log := logger.FromContext(ctx)

	var entity models.Entity
	row := e.DB.QueryRowContext(ctx, getEntity, entityType, entityID)
	err := row.Scan(
		&entity.EntityType,
		&entity.EntityID,
		&entity.Payload,
		&entity.CreatedAt,
		&entity.UpdatedAt,
		&entity.RemoteModifiedAt,
		&entity.Deleted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entity{}, fmt.Errorf("%w: %s/%s", ErrEntityNotFound, entityType, entityID)
	}
	if err != nil {
		log.Err(err).
			Str("func", "entityRepository.Get").
			Str("entity_type", string(entityType)).
			Str("entity_id", entityID).
			Msg("failed to read entity row")
		return models.Entity{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return entity, nil
}

// GetAll returns all live entities of one type.
func (e *entityRepository) GetAll(ctx context.Context, entityType models.EntityType) ([]models.Entity, error) {
	log := logger.FromContext(ctx)

	rows, err := e.DB.QueryContext(ctx, getAllEntities, entityType)
	if err != nil {
		log.Err(err).
			Str("func", "entityRepository.GetAll").
			Str("entity_type", string(entityType)).
			Msg("failed to query entities")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	entities := make([]models.Entity, 0, 32)
	for rows.Next() {
		var entity models.Entity
		if err = rows.Scan(
			&entity.EntityType,
			&entity.EntityID,
			&entity.Payload,
			&entity.CreatedAt,
			&entity.UpdatedAt,
			&entity.RemoteModifiedAt,
			&entity.Deleted,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		entities = append(entities, entity)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return entities, nil
}

// SaveWithOutbox upserts the entity and appends the outbox item atomically.
func (e *entityRepository) SaveWithOutbox(ctx context.Context, entity models.Entity, item models.OutboxItem) error {
	return e.inTransaction(ctx, "entityRepository.SaveWithOutbox", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertEntity,
			entity.EntityType,
			entity.EntityID,
			entity.Payload,
			entity.CreatedAt,
			entity.UpdatedAt,
			entity.RemoteModifiedAt,
			entity.Deleted,
		); err != nil {
			return fmt.Errorf("upsert entity %s/%s: %w", entity.EntityType, entity.EntityID, err)
		}

		if err := enqueueInTx(ctx, tx, item); err != nil {
			return err
		}

		return nil
	})
}

// DeleteWithOutbox tombstones the entity and appends the delete item
// atomically.
func (e *entityRepository) DeleteWithOutbox(ctx context.Context, entityType models.EntityType, entityID string, item models.OutboxItem) error {
	return e.inTransaction(ctx, "entityRepository.DeleteWithOutbox", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, softDeleteEntity, item.CreatedAt, entityType, entityID)
		if err != nil {
			return fmt.Errorf("tombstone entity %s/%s: %w", entityType, entityID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s/%s", ErrEntityNotFound, entityType, entityID)
		}

		if err = enqueueInTx(ctx, tx, item); err != nil {
			return err
		}

		return nil
	})
}

// ApplyRemote upserts a pulled remote record. With discardPending the
// entity's queued items are removed in the same transaction so a stale local
// edit cannot be pushed over the newer remote state afterwards.
func (e *entityRepository) ApplyRemote(ctx context.Context, entity models.Entity, discardPending bool) error {
	return e.inTransaction(ctx, "entityRepository.ApplyRemote", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertEntity,
			entity.EntityType,
			entity.EntityID,
			entity.Payload,
			entity.CreatedAt,
			entity.UpdatedAt,
			entity.RemoteModifiedAt,
			entity.Deleted,
		); err != nil {
			return fmt.Errorf("apply remote record %s/%s: %w", entity.EntityType, entity.EntityID, err)
		}

		if discardPending {
			if _, err := tx.ExecContext(ctx, removeOutboxItemsForEntity, entity.EntityType, entity.EntityID); err != nil {
				return fmt.Errorf("discard pending items %s/%s: %w", entity.EntityType, entity.EntityID, err)
			}
		}

		return nil
	})
}

// ApplyRemoteDelete propagates a remote tombstone: the local row is removed
// and any pending outbox items for the entity are discarded, otherwise a
// later push would resurrect the record through the remote upsert.
func (e *entityRepository) ApplyRemoteDelete(ctx context.Context, entityType models.EntityType, entityID string) error {
	return e.inTransaction(ctx, "entityRepository.ApplyRemoteDelete", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, hardDeleteEntity, entityType, entityID); err != nil {
			return fmt.Errorf("delete entity %s/%s: %w", entityType, entityID, err)
		}

		if _, err := tx.ExecContext(ctx, removeOutboxItemsForEntity, entityType, entityID); err != nil {
			return fmt.Errorf("discard pending items %s/%s: %w", entityType, entityID, err)
		}

		return nil
	})
}

func (e *entityRepository) inTransaction(ctx context.Context, funcName string, fn func(tx *sql.Tx) error) error {
	log := logger.FromContext(ctx)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}

	if err = fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			log.Err(rollbackErr).Str("func", funcName).Msg("rollback failed")
		}
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", funcName).Msg("commit failed")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

func enqueueInTx(ctx context.Context, tx *sql.Tx, item models.OutboxItem) error {
	if _, err := tx.ExecContext(ctx, enqueueOutboxItem,
		item.ID,
		item.EntityType,
		item.EntityID,
		item.Operation,
		item.Payload,
		item.Attempts,
		item.LastAttemptTime,
		item.CreatedAt,
	); err != nil {
		return fmt.Errorf("enqueue outbox item %s: %w", item.ID, err)
	}
	return nil
}
