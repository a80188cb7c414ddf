package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/colligo/internal/models"
)

// ErrJobNotFound is returned by JobStorage lookups for unknown keys.
var ErrJobNotFound = errors.New("job not found")

// KeySetStore persists a KeySet snapshot. Both the dedupe checkpoint and
// the delivery ledger use this contract, stored in separate files. Save
// must be atomic at the filesystem level: a crash mid-write leaves the
// prior snapshot readable, never a partial one.
type KeySetStore interface {
	// Load reads the current snapshot. A missing snapshot is not an
	// error; it yields an empty set (first run).
	Load(ctx context.Context) (*models.KeySet, error)

	// Save replaces the snapshot with the given set.
	Save(ctx context.Context, set *models.KeySet) error
}

// CorpusStore persists run outputs: per-source record lists, the
// consolidated corpus (full replace per run) and the run report.
type CorpusStore interface {
	SaveSourceRecords(ctx context.Context, platform models.Platform, records []models.JobRecord) error
	SaveConsolidated(ctx context.Context, records []models.JobRecord) error
	LoadConsolidated(ctx context.Context) ([]models.JobRecord, error)
	SaveRunReport(ctx context.Context, report *models.RunReport) error
}

// JobStorage is the durable archive of every record that has appeared in
// a consolidated corpus, keyed by IdentityKey.
type JobStorage interface {
	UpsertJobs(ctx context.Context, records []models.JobRecord, seenAt time.Time) error
	GetJob(ctx context.Context, key string) (*models.StoredJob, error)
	CountJobs(ctx context.Context) (int, error)
	ListJobs(ctx context.Context, limit int) ([]*models.StoredJob, error)
}

// StorageManager bundles the persistent stores a pipeline run needs.
type StorageManager interface {
	Checkpoint() KeySetStore
	Ledger() KeySetStore
	Corpus() CorpusStore
	Jobs() JobStorage
	Close() error
}
