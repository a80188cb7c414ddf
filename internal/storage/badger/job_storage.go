package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// JobStorage implements the JobStorage archive over badgerhold. Every
// record that ever appears in a consolidated corpus is kept here with
// first-seen/last-seen timestamps.
type JobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobStorage creates a new JobStorage instance
func NewJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobStorage {
	return &JobStorage{db: db, logger: logger}
}

// UpsertJobs stores the batch, preserving FirstSeen for known keys and
// refreshing LastSeen for all.
func (s *JobStorage) UpsertJobs(ctx context.Context, records []models.JobRecord, seenAt time.Time) error {
	for i := range records {
		rec := records[i]
		key := models.IdentityKey(&rec)

		stored := models.StoredJob{
			Key:       key,
			Record:    rec,
			FirstSeen: seenAt,
			LastSeen:  seenAt,
		}

		var existing models.StoredJob
		err := s.db.Store().Get(key, &existing)
		if err == nil {
			stored.FirstSeen = existing.FirstSeen
		} else if err != badgerhold.ErrNotFound {
			return fmt.Errorf("failed to check job existence: %w", err)
		}

		if err := s.db.Store().Upsert(key, &stored); err != nil {
			return fmt.Errorf("failed to upsert job %s: %w", key, err)
		}
	}

	s.logger.Debug().Int("count", len(records)).Msg("Job archive updated")
	return nil
}

// GetJob retrieves one archived job by identity key.
func (s *JobStorage) GetJob(ctx context.Context, key string) (*models.StoredJob, error) {
	var stored models.StoredJob
	err := s.db.Store().Get(key, &stored)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &stored, nil
}

// CountJobs returns the archive size.
func (s *JobStorage) CountJobs(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.StoredJob{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return int(count), nil
}

// ListJobs returns archived jobs ordered by most recently seen.
func (s *JobStorage) ListJobs(ctx context.Context, limit int) ([]*models.StoredJob, error) {
	query := badgerhold.Where("Key").Ne("").SortBy("LastSeen").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var jobs []*models.StoredJob
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}
