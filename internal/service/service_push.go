package service

import (
	"context"
	"errors"
	"time"

	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/internal/remote"
	"github.com/MKhiriev/go-workout-sync/internal/store"
	"github.com/MKhiriev/go-workout-sync/models"
)

// pushSynchronizer drains the outbox into the remote store. Creates and
// updates travel in batches capped by the store's ceiling; deletes go one by
// one because the remote contract has no batch delete. An item leaves the
// queue only after the call it represents succeeds, so delivery is
// at-least-once and a crash mid-push costs nothing but a redundant upsert.
type pushSynchronizer struct {
	outbox    store.OutboxRepository
	client    remote.Client
	batchSize int
	now       func() time.Time
	logger    *logger.Logger
}

func NewPushSynchronizer(outbox store.OutboxRepository, client remote.Client, batchSize int, log *logger.Logger) PushSynchronizer {
	if batchSize <= 0 || batchSize > remote.MaxBatchSize {
		batchSize = remote.MaxBatchSize
	}
	return &pushSynchronizer{
		outbox:    outbox,
		client:    client,
		batchSize: batchSize,
		now:       time.Now,
		logger:    log,
	}
}

// Push never mutates the remote cursor: that belongs to pull.
func (p *pushSynchronizer) Push(ctx context.Context) (PushResult, error) {
	log := logger.FromContext(ctx)

	items, err := p.outbox.PeekAll(ctx)
	if err != nil {
		return PushResult{}, err
	}
	if len(items) == 0 {
		return PushResult{}, nil
	}

	var result PushResult
	var firstHardErr error

	// Walk the queue in FIFO order. Saves accumulate into the current batch;
	// a delete flushes the batch first so the global order of operations the
	// remote store observes matches local intent.
	batch := make([]models.OutboxItem, 0, p.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := p.pushBatch(ctx, batch, &result); err != nil && firstHardErr == nil {
			firstHardErr = err
		}
		batch = batch[:0]
	}

	for _, item := range items {
		if item.Operation == models.OperationDelete {
			flush()
			if err := p.pushDelete(ctx, item, &result); err != nil && firstHardErr == nil {
				firstHardErr = err
			}
			continue
		}

		batch = append(batch, item)
		if len(batch) >= p.batchSize {
			flush()
		}
	}
	flush()

	log.Info().
		Str("func", "pushSynchronizer.Push").
		Int("pushed", result.Pushed).
		Int("failures", len(result.Failures)).
		Msg("outbox drained")

	return result, firstHardErr
}

// pushBatch sends one batch of create/update items. Items whose payload fails
// schema validation are recorded as permanent failures before the call; the
// rest travel together. A transient batch failure leaves every item queued.
func (p *pushSynchronizer) pushBatch(ctx context.Context, batch []models.OutboxItem, result *PushResult) error {
	log := logger.FromContext(ctx)

	records := make([]models.RemoteRecord, 0, len(batch))
	sendable := make([]models.OutboxItem, 0, len(batch))

	for _, item := range batch {
		fields, err := models.RecordFields(item.EntityType, item.Payload)
		if err != nil {
			p.recordFailure(ctx, item, err, result)
			continue
		}
		records = append(records, models.RemoteRecord{
			RecordName: item.EntityID,
			RecordType: string(item.EntityType),
			Fields:     fields,
		})
		sendable = append(sendable, item)
	}

	if len(records) == 0 {
		return nil
	}

	if _, err := p.client.BatchSaveRecords(ctx, records); err != nil {
		for _, item := range sendable {
			if attemptErr := p.outbox.RecordAttempt(ctx, item.ID, p.now()); attemptErr != nil {
				log.Err(attemptErr).
					Str("func", "pushSynchronizer.pushBatch").
					Str("item_id", item.ID).
					Msg("failed to record push attempt")
			}
		}

		if remote.IsTransient(err) {
			log.Warn().
				Err(err).
				Str("func", "pushSynchronizer.pushBatch").
				Int("batch_size", len(sendable)).
				Msg("transient batch failure, items left queued")
			if errors.Is(err, remote.ErrUnavailable) {
				return err
			}
			return nil
		}

		// Remote rejected the batch contents: surface every member.
		for _, item := range sendable {
			result.Failures = append(result.Failures, models.PushFailure{
				ItemID:     item.ID,
				EntityType: item.EntityType,
				EntityID:   item.EntityID,
				Reason:     err.Error(),
			})
		}
		return nil
	}

	for _, item := range sendable {
		if err := p.outbox.Remove(ctx, item.ID); err != nil {
			log.Err(err).
				Str("func", "pushSynchronizer.pushBatch").
				Str("item_id", item.ID).
				Msg("failed to remove pushed item")
			continue
		}
		result.Pushed++
	}

	return nil
}

// pushDelete sends a single delete. The remote delete is idempotent, so an
// already-absent record still counts as success.
func (p *pushSynchronizer) pushDelete(ctx context.Context, item models.OutboxItem, result *PushResult) error {
	log := logger.FromContext(ctx)

	if _, err := p.client.DeleteRecord(ctx, item.EntityID); err != nil {
		if attemptErr := p.outbox.RecordAttempt(ctx, item.ID, p.now()); attemptErr != nil {
			log.Err(attemptErr).
				Str("func", "pushSynchronizer.pushDelete").
				Str("item_id", item.ID).
				Msg("failed to record push attempt")
		}

		if remote.IsTransient(err) {
			if errors.Is(err, remote.ErrUnavailable) {
				return err
			}
			return nil
		}

		result.Failures = append(result.Failures, models.PushFailure{
			ItemID:     item.ID,
			EntityType: item.EntityType,
			EntityID:   item.EntityID,
			Reason:     err.Error(),
		})
		return nil
	}

	if err := p.outbox.Remove(ctx, item.ID); err != nil {
		log.Err(err).
			Str("func", "pushSynchronizer.pushDelete").
			Str("item_id", item.ID).
			Msg("failed to remove pushed delete")
		return nil
	}
	result.Pushed++

	return nil
}

// recordFailure marks an item permanently failed for this run: the attempt is
// counted and the failure surfaced, but the item stays queued (a dead-letter
// ceiling, when configured, eventually retires it).
func (p *pushSynchronizer) recordFailure(ctx context.Context, item models.OutboxItem, cause error, result *PushResult) {
	log := logger.FromContext(ctx)

	if err := p.outbox.RecordAttempt(ctx, item.ID, p.now()); err != nil {
		log.Err(err).
			Str("func", "pushSynchronizer.recordFailure").
			Str("item_id", item.ID).
			Msg("failed to record push attempt")
	}

	log.Warn().
		Err(cause).
		Str("func", "pushSynchronizer.recordFailure").
		Str("item_id", item.ID).
		Str("entity_type", string(item.EntityType)).
		Str("entity_id", item.EntityID).
		Msg("outbox item rejected")

	result.Failures = append(result.Failures, models.PushFailure{
		ItemID:     item.ID,
		EntityType: item.EntityType,
		EntityID:   item.EntityID,
		Reason:     cause.Error(),
	})
}
