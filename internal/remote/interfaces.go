// Package remote defines the narrow client contract for the cloud record
// store and its HTTP implementation. The engine only ever talks to the store
// through [Client]; the store's internals are not its concern.
package remote

import (
	"context"

	"github.com/MKhiriev/go-workout-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_mock.go -package=mock

// MaxBatchSize is the record store's ceiling on batch-save calls. Larger
// batches are rejected by the API, so push splits its work accordingly.
const MaxBatchSize = 400

// RecordQuery narrows and pages a record-type query.
type RecordQuery struct {
	// Predicate is an optional server-side filter expression.
	Predicate string
	// Limit caps the page size; zero lets the server choose.
	Limit int
	// Offset skips already-fetched pages when walking the full corpus.
	Offset int
}

// Client is the record store contract consumed by the sync engine.
//
// All calls are remote and may fail with the sentinel errors declared in this
// package: [ErrUnavailable] (no account or connectivity), [ErrRateLimited],
// [ErrMalformedPayload] and [ErrNotFound]. Timeouts are the implementation's
// responsibility and surface as transient failures.
type Client interface {
	// Initialize reports whether the remote store is reachable and the
	// account is usable.
	Initialize(ctx context.Context) (bool, error)

	// SaveRecord upserts a single record, keyed by RecordName. The store
	// stamps and returns the authoritative ModificationDate.
	SaveRecord(ctx context.Context, record models.RemoteRecord) (models.RemoteRecord, error)

	// BatchSaveRecords upserts up to [MaxBatchSize] records in one call.
	BatchSaveRecords(ctx context.Context, records []models.RemoteRecord) ([]models.RemoteRecord, error)

	// FetchRecord returns one record by name, or [ErrNotFound].
	FetchRecord(ctx context.Context, name string) (models.RemoteRecord, error)

	// QueryRecords returns one page of records of the given type.
	QueryRecords(ctx context.Context, recordType string, query RecordQuery) (models.QueryResult, error)

	// FetchChanges returns the records changed since cursor, the ids of
	// deleted records, and the cursor to resume from. An empty cursor asks
	// for the full change history the server still retains.
	FetchChanges(ctx context.Context, cursor string) (models.ChangeSet, error)

	// DeleteRecord removes a record by name. Deleting an absent record is
	// not an error: the delete is idempotent and reports false.
	DeleteRecord(ctx context.Context, name string) (bool, error)
}
