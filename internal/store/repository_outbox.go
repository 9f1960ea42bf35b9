package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/models"
)

// outboxRepository is the SQLite-backed implementation of [OutboxRepository].
// maxAttempts is the dead-letter ceiling: zero disables dead-lettering and
// items are retried forever, matching the queue's original behaviour.
type outboxRepository struct {
	*DB
	logger      *logger.Logger
	maxAttempts int
}

func NewOutboxRepository(db *DB, maxAttempts int, logger *logger.Logger) OutboxRepository {
	return &outboxRepository{
		DB:          db,
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

var outboxColumns = []string{
	"id",
	"entity_type",
	"entity_id",
	"operation",
	"payload",
	"attempts",
	"last_attempt_time",
	"created_at",
}

// PeekAll returns every pending item in FIFO order. Items at or over the
// dead-letter ceiling are filtered out of the result but stay in the table.
func (o *outboxRepository) PeekAll(ctx context.Context) ([]models.OutboxItem, error) {
	builder := sq.Select(outboxColumns...).
		From("sync_queue").
		OrderBy("created_at ASC", "id ASC")

	if o.maxAttempts > 0 {
		builder = builder.Where(sq.Lt{"attempts": o.maxAttempts})
	}

	return o.queryItems(ctx, "outboxRepository.PeekAll", builder)
}

// DeadLetters returns items that exhausted the attempts ceiling. With no
// ceiling configured the result is always empty.
func (o *outboxRepository) DeadLetters(ctx context.Context) ([]models.OutboxItem, error) {
	if o.maxAttempts <= 0 {
		return nil, nil
	}

	builder := sq.Select(outboxColumns...).
		From("sync_queue").
		Where(sq.GtOrEq{"attempts": o.maxAttempts}).
		OrderBy("created_at ASC", "id ASC")

	return o.queryItems(ctx, "outboxRepository.DeadLetters", builder)
}

func (o *outboxRepository) queryItems(ctx context.Context, funcName string, builder sq.SelectBuilder) ([]models.OutboxItem, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("failed to build query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := o.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("failed to query sync_queue")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	items := make([]models.OutboxItem, 0, 16)
	for rows.Next() {
		var item models.OutboxItem
		if err = rows.Scan(
			&item.ID,
			&item.EntityType,
			&item.EntityID,
			&item.Operation,
			&item.Payload,
			&item.Attempts,
			&item.LastAttemptTime,
			&item.CreatedAt,
		); err != nil {
			log.Err(err).Str("func", funcName).Msg("failed to scan sync_queue row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return items, nil
}

// PendingForEntity returns the queued items for one entity in FIFO order.
func (o *outboxRepository) PendingForEntity(ctx context.Context, entityType models.EntityType, entityID string) ([]models.OutboxItem, error) {
	log := logger.FromContext(ctx)

	rows, err := o.DB.QueryContext(ctx, getOutboxItemsForEntity, entityType, entityID)
	if err != nil {
		log.Err(err).
			Str("func", "outboxRepository.PendingForEntity").
			Str("entity_type", string(entityType)).
			Str("entity_id", entityID).
			Msg("failed to query pending items")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	items := make([]models.OutboxItem, 0, 4)
	for rows.Next() {
		var item models.OutboxItem
		if err = rows.Scan(
			&item.ID,
			&item.EntityType,
			&item.EntityID,
			&item.Operation,
			&item.Payload,
			&item.Attempts,
			&item.LastAttemptTime,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return items, nil
}

// Remove deletes a successfully pushed item from the queue.
func (o *outboxRepository) Remove(ctx context.Context, itemID string) error {
	log := logger.FromContext(ctx)

	res, err := o.DB.ExecContext(ctx, removeOutboxItem, itemID)
	if err != nil {
		log.Err(err).
			Str("func", "outboxRepository.Remove").
			Str("item_id", itemID).
			Msg("failed to remove outbox item")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%s", ErrOutboxItemNotFound, itemID)
	}

	return nil
}

// RemoveForEntity discards every queued item for an entity.
func (o *outboxRepository) RemoveForEntity(ctx context.Context, entityType models.EntityType, entityID string) error {
	log := logger.FromContext(ctx)

	_, err := o.DB.ExecContext(ctx, removeOutboxItemsForEntity, entityType, entityID)
	if err != nil {
		log.Err(err).
			Str("func", "outboxRepository.RemoveForEntity").
			Str("entity_type", string(entityType)).
			Str("entity_id", entityID).
			Msg("failed to remove outbox items for entity")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// RecordAttempt increments the attempt counter and stamps the attempt time.
// The item stays queued; removal happens only on push success.
func (o *outboxRepository) RecordAttempt(ctx context.Context, itemID string, at time.Time) error {
	log := logger.FromContext(ctx)

	res, err := o.DB.ExecContext(ctx, recordOutboxAttempt, at, itemID)
	if err != nil {
		log.Err(err).
			Str("func", "outboxRepository.RecordAttempt").
			Str("item_id", itemID).
			Msg("failed to record push attempt")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%s", ErrOutboxItemNotFound, itemID)
	}

	return nil
}
