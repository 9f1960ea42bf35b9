package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/models"
)

// metadataRepository is the SQLite-backed implementation of
// [MetadataRepository]. The sync_metadata table holds exactly one row
// (id = 1) which is created lazily on first read.
type metadataRepository struct {
	*DB
	logger *logger.Logger
}

func NewMetadataRepository(db *DB, logger *logger.Logger) MetadataRepository {
	return &metadataRepository{
		DB:     db,
		logger: logger,
	}
}

// Get returns the singleton metadata row. On first access the row does not
// exist yet: a fresh device id is generated and the row is inserted with
// sync disabled, per the lazy-creation contract.
func (m *metadataRepository) Get(ctx context.Context) (models.SyncMetadata, error) {
	log := logger.FromContext(ctx)

	var meta models.SyncMetadata
	var cursor sql.NullString

	row := m.DB.QueryRowContext(ctx, getSyncMetadata)
	err := row.Scan(&meta.DeviceID, &meta.LastSyncTime, &cursor, &meta.SyncEnabled)
	if err == nil {
		meta.RemoteCursor = cursor.String
		return meta, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Err(err).
			Str("func", "metadataRepository.Get").
			Msg("failed to read sync metadata row")
		return models.SyncMetadata{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	meta = models.SyncMetadata{
		DeviceID:    uuid.NewString(),
		SyncEnabled: false,
	}
	_, err = m.DB.ExecContext(ctx, insertSyncMetadata,
		meta.DeviceID,
		meta.LastSyncTime,
		nullableString(meta.RemoteCursor),
		meta.SyncEnabled,
	)
	if err != nil {
		log.Err(err).
			Str("func", "metadataRepository.Get").
			Str("device_id", meta.DeviceID).
			Msg("failed to create sync metadata row")
		return models.SyncMetadata{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	log.Info().
		Str("func", "metadataRepository.Get").
		Str("device_id", meta.DeviceID).
		Msg("sync metadata row created")

	return meta, nil
}

// Save overwrites the singleton metadata row.
func (m *metadataRepository) Save(ctx context.Context, meta models.SyncMetadata) error {
	log := logger.FromContext(ctx)

	res, err := m.DB.ExecContext(ctx, updateSyncMetadata,
		meta.DeviceID,
		meta.LastSyncTime,
		nullableString(meta.RemoteCursor),
		meta.SyncEnabled,
	)
	if err != nil {
		log.Err(err).
			Str("func", "metadataRepository.Save").
			Str("device_id", meta.DeviceID).
			Msg("failed to update sync metadata row")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		// Save before any Get: create the row instead.
		_, err = m.DB.ExecContext(ctx, insertSyncMetadata,
			meta.DeviceID,
			meta.LastSyncTime,
			nullableString(meta.RemoteCursor),
			meta.SyncEnabled,
		)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	return nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
