// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

const (
	getSyncMetadata = `
		SELECT
			device_id,
			last_sync_time,
			remote_cursor,
			sync_enabled
		FROM sync_metadata
		WHERE id = 1;`

	insertSyncMetadata = `
		INSERT INTO sync_metadata (
			id,
			device_id,
			last_sync_time,
			remote_cursor,
			sync_enabled
		) VALUES (1, $1, $2, $3, $4);`

	updateSyncMetadata = `
		UPDATE sync_metadata SET
			device_id      = $1,
			last_sync_time = $2,
			remote_cursor  = $3,
			sync_enabled   = $4
		WHERE id = 1;`

	enqueueOutboxItem = `
		INSERT INTO sync_queue (
			id,
			entity_type,
			entity_id,
			operation,
			payload,
			attempts,
			last_attempt_time,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	removeOutboxItem = `
		DELETE FROM sync_queue
		WHERE id = $1;`

	removeOutboxItemsForEntity = `
		DELETE FROM sync_queue
		WHERE entity_type = $1 AND entity_id = $2;`

	recordOutboxAttempt = `
		UPDATE sync_queue SET
			attempts          = attempts + 1,
			last_attempt_time = $1
		WHERE id = $2;`

	getOutboxItemsForEntity = `
		SELECT
			id,
			entity_type,
			entity_id,
			operation,
			payload,
			attempts,
			last_attempt_time,
			created_at
		FROM sync_queue
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at ASC, id ASC;`

	appendSyncConflict = `
		INSERT INTO sync_conflicts (
			id,
			entity_type,
			entity_id,
			local_snapshot,
			remote_snapshot,
			resolution,
			resolved_at,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	pruneSyncConflicts = `
		DELETE FROM sync_conflicts
		WHERE created_at < $1;`

	upsertEntity = `
		INSERT INTO entities (
			entity_type,
			entity_id,
			payload,
			created_at,
			updated_at,
			remote_modified_at,
			deleted
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			payload            = excluded.payload,
			updated_at         = excluded.updated_at,
			remote_modified_at = excluded.remote_modified_at,
			deleted            = excluded.deleted;`

	getEntity = `
		SELECT
			entity_type,
			entity_id,
			payload,
			created_at,
			updated_at,
			remote_modified_at,
			deleted
		FROM entities
		WHERE entity_type = $1 AND entity_id = $2;`

	getAllEntities = `
		SELECT
			entity_type,
			entity_id,
			payload,
			created_at,
			updated_at,
			remote_modified_at,
			deleted
		FROM entities
		WHERE entity_type = $1 AND deleted = 0;`

	softDeleteEntity = `
		UPDATE entities SET
			deleted    = 1,
			updated_at = $1
		WHERE entity_type = $2 AND entity_id = $3;`

	hardDeleteEntity = `
		DELETE FROM entities
		WHERE entity_type = $1 AND entity_id = $2;`
)
