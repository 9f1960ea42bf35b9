package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/internal/store"
)

// conflictPruner enforces the conflict log's retention policy: resolved
// divergences stay reviewable for the retention window and are then removed.
type conflictPruner struct {
	conflicts store.ConflictRepository
	retention time.Duration
	trigger   Trigger
	now       func() time.Time
	logger    *logger.Logger
}

func NewConflictPruner(conflicts store.ConflictRepository, retention time.Duration, trigger Trigger, log *logger.Logger) *conflictPruner {
	return &conflictPruner{
		conflicts: conflicts,
		retention: retention,
		trigger:   trigger,
		now:       time.Now,
		logger:    log,
	}
}

// Start registers the periodic pruning job. Idempotent via the trigger.
func (c *conflictPruner) Start(ctx context.Context) {
	c.trigger.Start(ctx, c.pruneOnce)
}

// Stop cancels the registration.
func (c *conflictPruner) Stop() {
	c.trigger.Stop()
}

func (c *conflictPruner) pruneOnce(ctx context.Context) {
	olderThan := c.now().Add(-c.retention)

	pruned, err := c.conflicts.Prune(ctx, olderThan)
	if err != nil {
		c.logger.Err(err).
			Str("func", "conflictPruner.pruneOnce").
			Time("older_than", olderThan).
			Msg("conflict pruning failed")
		return
	}

	if pruned > 0 {
		c.logger.Info().
			Str("func", "conflictPruner.pruneOnce").
			Int64("pruned", pruned).
			Msg("old conflicts pruned")
	}
}
