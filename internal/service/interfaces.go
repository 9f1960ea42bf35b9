package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-workout-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// PushResult summarises one outbox drain.
type PushResult struct {
	// Pushed counts queue items confirmed by the remote store and removed.
	Pushed int

	// Failures lists items that were rejected permanently (malformed
	// payload). They stay queued and will be offered again on the next run
	// unless a dead-letter ceiling retires them.
	Failures []models.PushFailure
}

// PullResult summarises one remote change ingestion.
type PullResult struct {
	// Pulled counts remote changes (upserts and deletes) applied locally.
	Pulled int

	// Conflicts counts divergences detected and logged during apply.
	Conflicts int

	// Skipped counts remote records that could not be applied (e.g. payload
	// failed schema validation) and were left for a later run.
	Skipped int

	// NewCursor is the change token to persist once the caller is satisfied
	// the whole batch is applied. Only valid when Pull returned nil error.
	NewCursor string
}

// PushSynchronizer drains the outbox queue into the remote store.
type PushSynchronizer interface {
	// Push sends all pending outbox items. Per-item failures are swallowed
	// into the result; the returned error is the first hard failure (remote
	// wholly unavailable) and never aborts unrelated items.
	Push(ctx context.Context) (PushResult, error)
}

// PullSynchronizer ingests remote changes since a cursor.
type PullSynchronizer interface {
	// Pull fetches changes after cursor, detects and resolves conflicts, and
	// applies the results locally. An empty cursor triggers a full-corpus
	// resync. A non-nil error means the cursor must NOT be advanced.
	Pull(ctx context.Context, cursor string) (PullResult, error)
}

// ConflictResolver decides which side of a divergence wins.
type ConflictResolver interface {
	// Resolve compares the local edit time against the remote record's
	// modification date and returns the winning side.
	Resolve(localEditTime, remoteModTime time.Time) models.Resolution
}

// Orchestrator is the single entry point for a full sync run.
type Orchestrator interface {
	// RunFullSync sequences push then pull under the single-flight guard and
	// persists the advanced cursor. It never returns an error: every outcome
	// is encoded in the summary.
	RunFullSync(ctx context.Context) models.SyncResult
}

// Trigger abstracts the host platform's periodic background-execution
// facility, keeping the engine free of any particular scheduler API.
// Implementations must make Start and Stop idempotent.
type Trigger interface {
	// Start registers fn to be invoked periodically until Stop or ctx
	// cancellation. Calling Start while registered has no additional effect.
	Start(ctx context.Context, fn func(context.Context))

	// Stop cancels the registration and waits for an in-flight invocation to
	// return. Safe to call when not started.
	Stop()
}

// Scheduler toggles background synchronization.
type Scheduler interface {
	StartBackgroundSync(ctx context.Context)
	StopBackgroundSync()
}

// EntityService is the mutation surface the application uses for templates
// and sessions. Every mutation enqueues its outbox item in the same local
// transaction, which is what keeps sync lossless across crashes.
type EntityService interface {
	SaveTemplate(ctx context.Context, template models.Template) error
	SaveSession(ctx context.Context, session models.Session) error
	DeleteEntity(ctx context.Context, entityType models.EntityType, entityID string) error

	GetTemplate(ctx context.Context, id string) (models.Template, error)
	GetSession(ctx context.Context, id string) (models.Session, error)
	ListTemplates(ctx context.Context) ([]models.Template, error)
	ListSessions(ctx context.Context) ([]models.Session, error)
}
