package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-workout-sync/internal/config"
	"github.com/MKhiriev/go-workout-sync/internal/logger"
)

// Storages groups all local repositories into a single value that can be
// passed around the service layer.
type Storages struct {
	// Metadata is the singleton per-device sync configuration row.
	Metadata MetadataRepository

	// Outbox is the durable FIFO log of pending local mutations.
	Outbox OutboxRepository

	// Conflicts is the append-only divergence log.
	Conflicts ConflictRepository

	// Entities is the synchronized view of workout templates and sessions.
	Entities EntityRepository
}

// NewStorages initialises the local storage layer using the supplied
// configuration and logger. It performs the following steps:
//  1. Opens an SQLite connection to the file path specified in cfg DSN,
//     creating the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. Constructs and returns a [Storages] value wired to fresh repositories.
//
// Returns an error if the database connection cannot be established or if
// migration fails.
func NewStorages(storageCfg config.Storage, syncCfg config.Sync, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(context.Background(), storageCfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		Metadata:  NewMetadataRepository(db, logger),
		Outbox:    NewOutboxRepository(db, syncCfg.MaxAttempts, logger),
		Conflicts: NewConflictRepository(db, logger),
		Entities:  NewEntityRepository(db, logger),
	}, nil
}
