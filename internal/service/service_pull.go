package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/internal/remote"
	"github.com/MKhiriev/go-workout-sync/internal/store"
	"github.com/MKhiriev/go-workout-sync/models"
)

// fullResyncPageSize is the page size used when walking the whole remote
// corpus on a device that has no cursor yet.
const fullResyncPageSize = 200

// pullSynchronizer ingests remote changes. The returned cursor is never
// persisted here: the caller advances it only after Pull reports that every
// change was applied, so a crash between apply and cursor write re-fetches
// instead of skipping records.
type pullSynchronizer struct {
	entities  store.EntityRepository
	outbox    store.OutboxRepository
	conflicts store.ConflictRepository
	client    remote.Client
	resolver  ConflictResolver
	now       func() time.Time
	logger    *logger.Logger
}

func NewPullSynchronizer(
	entities store.EntityRepository,
	outbox store.OutboxRepository,
	conflicts store.ConflictRepository,
	client remote.Client,
	resolver ConflictResolver,
	log *logger.Logger,
) PullSynchronizer {
	return &pullSynchronizer{
		entities:  entities,
		outbox:    outbox,
		conflicts: conflicts,
		client:    client,
		resolver:  resolver,
		now:       time.Now,
		logger:    log,
	}
}

func (p *pullSynchronizer) Pull(ctx context.Context, cursor string) (PullResult, error) {
	log := logger.FromContext(ctx)

	var result PullResult

	// No cursor means this device has never synced (or was asked for a full
	// resync): the remote corpus cannot be assumed empty and must be walked
	// in full before incremental fetching starts.
	if cursor == "" {
		if err := p.fullResync(ctx, &result); err != nil {
			return result, err
		}
	}

	changes, err := p.client.FetchChanges(ctx, cursor)
	if err != nil {
		return result, fmt.Errorf("fetch changes: %w", err)
	}

	for _, record := range changes.Changed {
		if err = p.applyRecord(ctx, record, &result); err != nil {
			return result, err
		}
	}

	for _, deletedID := range changes.DeletedIDs {
		if err = p.applyDelete(ctx, deletedID, &result); err != nil {
			return result, err
		}
	}

	result.NewCursor = changes.NewCursor

	log.Info().
		Str("func", "pullSynchronizer.Pull").
		Int("pulled", result.Pulled).
		Int("conflicts", result.Conflicts).
		Int("skipped", result.Skipped).
		Msg("remote changes applied")

	return result, nil
}

// fullResync pages through every known record type. Records that also appear
// in the subsequent change fetch are applied twice, which idempotent apply
// makes harmless.
func (p *pullSynchronizer) fullResync(ctx context.Context, result *PullResult) error {
	for _, entityType := range models.KnownEntityTypes {
		offset := 0
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			page, err := p.client.QueryRecords(ctx, string(entityType), remote.RecordQuery{
				Limit:  fullResyncPageSize,
				Offset: offset,
			})
			if err != nil {
				return fmt.Errorf("query %s records: %w", entityType, err)
			}

			for _, record := range page.Records {
				if err = p.applyRecord(ctx, record, result); err != nil {
					return err
				}
			}

			// An empty page cannot advance the offset; treat it as the end of
			// the corpus regardless of has_more, or the walk would request the
			// same page forever.
			if !page.HasMore || len(page.Records) == 0 {
				break
			}
			offset += len(page.Records)
		}
	}

	return nil
}

// applyRecord reconciles one changed remote record against local state.
// Local database errors abort the pull (the cursor must not advance past an
// unapplied record); a record that fails schema validation is skipped and
// counted instead, since retrying it can never succeed.
func (p *pullSynchronizer) applyRecord(ctx context.Context, record models.RemoteRecord, result *PullResult) error {
	log := logger.FromContext(ctx)

	payload, err := models.PayloadFromRecord(record)
	if err != nil {
		log.Warn().
			Err(err).
			Str("func", "pullSynchronizer.applyRecord").
			Str("record_name", record.RecordName).
			Str("record_type", record.RecordType).
			Msg("skipping malformed remote record")
		result.Skipped++
		return nil
	}

	entityType := models.EntityType(record.RecordType)
	now := p.now()
	incoming := models.Entity{
		EntityType:       entityType,
		EntityID:         record.RecordName,
		Payload:          payload,
		CreatedAt:        now,
		UpdatedAt:        now,
		RemoteModifiedAt: &record.ModificationDate,
	}

	local, err := p.entities.Get(ctx, entityType, record.RecordName)
	if errors.Is(err, store.ErrEntityNotFound) {
		// Unknown locally: plain insert, no divergence possible.
		if err = p.entities.ApplyRemote(ctx, incoming, false); err != nil {
			return err
		}
		result.Pulled++
		return nil
	}
	if err != nil {
		return err
	}

	incoming.CreatedAt = local.CreatedAt

	pending, err := p.outbox.PendingForEntity(ctx, entityType, record.RecordName)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		// Not locally diverged: remote wins trivially.
		if err = p.entities.ApplyRemote(ctx, incoming, false); err != nil {
			return err
		}
		result.Pulled++
		return nil
	}

	// The user edited this entity locally since the last successful push AND
	// another device changed it remotely: a genuine conflict.
	localEditTime := pending[len(pending)-1].CreatedAt
	resolution := p.resolver.Resolve(localEditTime, record.ModificationDate)

	resolvedAt := p.now()
	conflict := models.SyncConflict{
		ID:             uuid.NewString(),
		EntityType:     entityType,
		EntityID:       record.RecordName,
		LocalSnapshot:  local.Payload,
		RemoteSnapshot: payload,
		Resolution:     resolution,
		ResolvedAt:     &resolvedAt,
		CreatedAt:      resolvedAt,
	}
	if err = p.conflicts.Append(ctx, conflict); err != nil {
		return err
	}

	log.Info().
		Str("func", "pullSynchronizer.applyRecord").
		Str("entity_type", string(entityType)).
		Str("entity_id", record.RecordName).
		Str("resolution", string(resolution)).
		Time("local_edit", localEditTime).
		Time("remote_edit", record.ModificationDate).
		Msg("conflict resolved")

	result.Conflicts++

	if resolution == models.ResolutionLocal {
		// Local wins: keep local state untouched. The pending outbox items
		// remain queued, so the local version is pushed back over the remote
		// one on the next push.
		return nil
	}

	// Remote wins: overwrite local state and discard the stale queued edits
	// in the same transaction so they are never pushed.
	if err = p.entities.ApplyRemote(ctx, incoming, true); err != nil {
		return err
	}
	result.Pulled++

	return nil
}

// applyDelete propagates a remote tombstone. Deletion is terminal in this
// design: it wins over pending local edits, whose queue entries are discarded
// along with the row.
func (p *pullSynchronizer) applyDelete(ctx context.Context, deletedID string, result *PullResult) error {
	log := logger.FromContext(ctx)

	for _, entityType := range models.KnownEntityTypes {
		_, err := p.entities.Get(ctx, entityType, deletedID)
		if errors.Is(err, store.ErrEntityNotFound) {
			continue
		}
		if err != nil {
			return err
		}

		if err = p.entities.ApplyRemoteDelete(ctx, entityType, deletedID); err != nil {
			return err
		}

		log.Debug().
			Str("func", "pullSynchronizer.applyDelete").
			Str("entity_type", string(entityType)).
			Str("entity_id", deletedID).
			Msg("remote tombstone applied")

		result.Pulled++
		return nil
	}

	// Never seen locally: nothing to do.
	return nil
}
