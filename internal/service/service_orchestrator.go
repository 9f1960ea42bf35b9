package service

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/internal/store"
	"github.com/MKhiriev/go-workout-sync/models"
)

// orchestrator sequences one full sync run: push, then pull, then metadata
// update. Pull depends on push having drained everything known at run start,
// so the two never overlap. The metadata row is loaded once at the start and
// persisted at the end; push and pull never touch it.
type orchestrator struct {
	metadata store.MetadataRepository
	push     PushSynchronizer
	pull     PullSynchronizer
	now      func() time.Time
	logger   *logger.Logger

	// inflight is the single-flight guard: a second RunFullSync while one is
	// active reports StatusAlreadyRunning instead of queuing.
	inflight *semaphore.Weighted
}

func NewOrchestrator(metadata store.MetadataRepository, push PushSynchronizer, pull PullSynchronizer, log *logger.Logger) Orchestrator {
	return &orchestrator{
		metadata: metadata,
		push:     push,
		pull:     pull,
		now:      time.Now,
		logger:   log,
		inflight: semaphore.NewWeighted(1),
	}
}

func (o *orchestrator) RunFullSync(ctx context.Context) models.SyncResult {
	log := logger.FromContext(ctx)

	if !o.inflight.TryAcquire(1) {
		return models.SyncResult{Status: models.SyncStatusAlreadyRunning}
	}
	defer o.inflight.Release(1)

	meta, err := o.metadata.Get(ctx)
	if err != nil {
		return models.SyncResult{Status: models.SyncStatusFailed, Err: err}
	}
	if !meta.SyncEnabled {
		return models.SyncResult{Status: models.SyncStatusDisabled}
	}

	pushResult, pushErr := o.push.Push(ctx)
	if pushErr != nil {
		log.Warn().
			Err(pushErr).
			Str("func", "orchestrator.RunFullSync").
			Msg("push failed, still attempting pull")
	}

	pullResult, pullErr := o.pull.Pull(ctx, meta.RemoteCursor)

	// The cursor advances only after the pull batch is fully applied. On
	// pull failure the old cursor stays, so the next run re-fetches the same
	// changes; idempotent apply makes the overlap harmless.
	if pullErr == nil {
		// A blank cursor from the server never clobbers a stored one: that
		// would silently demote the device to a full resync on the next run.
		if pullResult.NewCursor != "" {
			meta.RemoteCursor = pullResult.NewCursor
		}
		syncedAt := o.now()
		meta.LastSyncTime = &syncedAt
		if err = o.metadata.Save(ctx, meta); err != nil {
			pullErr = err
		}
	}

	summary := models.SyncResult{
		PushedCount:   pushResult.Pushed,
		PulledCount:   pullResult.Pulled,
		ConflictCount: pullResult.Conflicts,
		Failures:      pushResult.Failures,
	}

	// The summary's error reflects the first hard failure encountered.
	if pushErr != nil {
		summary.Err = pushErr
	} else if pullErr != nil {
		summary.Err = pullErr
	}

	summary.Status = classify(summary, pullResult)

	log.Info().
		Str("func", "orchestrator.RunFullSync").
		Str("status", string(summary.Status)).
		Int("pushed", summary.PushedCount).
		Int("pulled", summary.PulledCount).
		Int("conflicts", summary.ConflictCount).
		Msg("full sync finished")

	return summary
}

func classify(summary models.SyncResult, pull PullResult) models.SyncStatus {
	progressed := summary.PushedCount > 0 || summary.PulledCount > 0

	if summary.Err != nil {
		if progressed {
			return models.SyncStatusPartial
		}
		return models.SyncStatusFailed
	}
	if summary.ConflictCount > 0 || len(summary.Failures) > 0 || pull.Skipped > 0 {
		return models.SyncStatusPartial
	}
	if !progressed {
		return models.SyncStatusNoop
	}
	return models.SyncStatusOK
}
