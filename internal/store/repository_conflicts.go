package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/models"
)

// conflictRepository is the SQLite-backed implementation of
// [ConflictRepository]. The sync_conflicts table is append-only: rows are
// written once with their resolution and both snapshots, and only the
// retention job removes them.
type conflictRepository struct {
	*DB
	logger *logger.Logger
}

func NewConflictRepository(db *DB, logger *logger.Logger) ConflictRepository {
	return &conflictRepository{
		DB:     db,
		logger: logger,
	}
}

// Append stores one detected conflict together with both snapshots.
func (c *conflictRepository) Append(ctx context.Context, conflict models.SyncConflict) error {
	log := logger.FromContext(ctx)

	_, err := c.DB.ExecContext(ctx, appendSyncConflict,
		conflict.ID,
		conflict.EntityType,
		conflict.EntityID,
		conflict.LocalSnapshot,
		conflict.RemoteSnapshot,
		conflict.Resolution,
		conflict.ResolvedAt,
		conflict.CreatedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.Append").
			Str("entity_type", string(conflict.EntityType)).
			Str("entity_id", conflict.EntityID).
			Str("resolution", string(conflict.Resolution)).
			Msg("failed to append sync conflict")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// GetAll returns conflicts newest-first. Zero-valued filter fields are
// ignored, so an empty filter returns the full log.
func (c *conflictRepository) GetAll(ctx context.Context, filter ConflictFilter) ([]models.SyncConflict, error) {
	log := logger.FromContext(ctx)

	builder := sq.Select(
		"id",
		"entity_type",
		"entity_id",
		"local_snapshot",
		"remote_snapshot",
		"resolution",
		"resolved_at",
		"created_at",
	).
		From("sync_conflicts").
		OrderBy("created_at DESC", "id DESC")

	if filter.EntityType != "" {
		builder = builder.Where(sq.Eq{"entity_type": filter.EntityType})
	}
	if filter.Resolution != "" {
		builder = builder.Where(sq.Eq{"resolution": filter.Resolution})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", "conflictRepository.GetAll").Msg("failed to build query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := c.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "conflictRepository.GetAll").Msg("failed to query sync_conflicts")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	conflicts := make([]models.SyncConflict, 0, 16)
	for rows.Next() {
		var conflict models.SyncConflict
		if err = rows.Scan(
			&conflict.ID,
			&conflict.EntityType,
			&conflict.EntityID,
			&conflict.LocalSnapshot,
			&conflict.RemoteSnapshot,
			&conflict.Resolution,
			&conflict.ResolvedAt,
			&conflict.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		conflicts = append(conflicts, conflict)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return conflicts, nil
}

// Prune removes conflicts created before olderThan.
func (c *conflictRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	res, err := c.DB.ExecContext(ctx, pruneSyncConflicts, olderThan)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.Prune").
			Time("older_than", olderThan).
			Msg("failed to prune sync conflicts")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return pruned, nil
}
