package service

import (
	"context"

	"github.com/MKhiriev/go-workout-sync/internal/config"
	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/internal/remote"
	"github.com/MKhiriev/go-workout-sync/internal/store"
	"github.com/MKhiriev/go-workout-sync/models"
)

// Services is the engine's surface to the rest of the application: entity
// mutations, sync control, and the conflict review log.
type Services struct {
	// Entities is the mutation surface for templates and sessions.
	Entities EntityService

	metadata     store.MetadataRepository
	outbox       store.OutboxRepository
	conflicts    store.ConflictRepository
	orchestrator Orchestrator
	scheduler    Scheduler
	pruner       *conflictPruner
	logger       *logger.Logger
}

// NewServices wires the full engine from its parts: repositories, the remote
// client, push/pull synchronizers, the orchestrator, the background scheduler
// and the conflict retention job.
func NewServices(storages *store.Storages, client remote.Client, cfg *config.StructuredConfig, log *logger.Logger) *Services {
	resolver := NewLastWriterWinsResolver()
	push := NewPushSynchronizer(storages.Outbox, client, cfg.Sync.BatchSize, log)
	pull := NewPullSynchronizer(storages.Entities, storages.Outbox, storages.Conflicts, client, resolver, log)
	orchestrator := NewOrchestrator(storages.Metadata, push, pull, log)
	scheduler := NewScheduler(orchestrator, NewTickerTrigger(cfg.Workers.SyncInterval), log)
	pruner := NewConflictPruner(storages.Conflicts, cfg.Sync.ConflictRetention, NewTickerTrigger(cfg.Workers.PruneInterval), log)

	return &Services{
		Entities:     NewEntityService(storages.Entities, storages.Outbox, log),
		metadata:     storages.Metadata,
		outbox:       storages.Outbox,
		conflicts:    storages.Conflicts,
		orchestrator: orchestrator,
		scheduler:    scheduler,
		pruner:       pruner,
		logger:       log,
	}
}

// SetSyncEnabled flips the per-device enable flag. Disabling does not touch
// the queue: pending mutations stay durably stored and are pushed once sync
// is re-enabled.
func (s *Services) SetSyncEnabled(ctx context.Context, enabled bool) error {
	meta, err := s.metadata.Get(ctx)
	if err != nil {
		return err
	}

	meta.SyncEnabled = enabled
	if err = s.metadata.Save(ctx, meta); err != nil {
		return err
	}

	s.logger.Info().
		Str("func", "Services.SetSyncEnabled").
		Bool("enabled", enabled).
		Msg("sync flag changed")

	return nil
}

// GetSyncMetadata returns the per-device sync state, creating it lazily.
func (s *Services) GetSyncMetadata(ctx context.Context) (models.SyncMetadata, error) {
	return s.metadata.Get(ctx)
}

// RunFullSync triggers one on-demand sync run.
func (s *Services) RunFullSync(ctx context.Context) models.SyncResult {
	return s.orchestrator.RunFullSync(ctx)
}

// StartBackgroundSync registers the periodic sync wake-up and the conflict
// retention job. Idempotent.
func (s *Services) StartBackgroundSync(ctx context.Context) {
	s.scheduler.StartBackgroundSync(ctx)
	s.pruner.Start(ctx)
}

// StopBackgroundSync cancels both background registrations. Idempotent.
func (s *Services) StopBackgroundSync() {
	s.scheduler.StopBackgroundSync()
	s.pruner.Stop()
}

// GetAllConflicts returns the divergence log, newest first.
func (s *Services) GetAllConflicts(ctx context.Context) ([]models.SyncConflict, error) {
	return s.conflicts.GetAll(ctx, store.ConflictFilter{})
}

// GetDeadLetters returns outbox items retired by the attempts ceiling.
func (s *Services) GetDeadLetters(ctx context.Context) ([]models.OutboxItem, error) {
	return s.outbox.DeadLetters(ctx)
}
