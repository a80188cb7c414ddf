// Package dedup removes duplicate job records within a batch and tracks
// the cross-run checkpoint of previously seen identity keys.
package dedup

import (
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/models"
)

// Engine deduplicates record batches by IdentityKey.
type Engine struct {
	logger arbor.ILogger
}

// NewEngine creates a deduplication engine.
func NewEngine(logger arbor.ILogger) *Engine {
	return &Engine{logger: logger}
}

// Dedupe returns the batch with duplicate identity keys removed. Stable
// and order-preserving: the first occurrence of a key wins. Idempotent.
func (e *Engine) Dedupe(records []models.JobRecord) []models.JobRecord {
	seen := make(map[string]bool, len(records))
	unique := make([]models.JobRecord, 0, len(records))

	for _, rec := range records {
		key := models.IdentityKey(&rec)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, rec)
	}

	if dropped := len(records) - len(unique); dropped > 0 && e.logger != nil {
		e.logger.Debug().
			Int("input", len(records)).
			Int("dropped", dropped).
			Msg("Removed duplicate records from batch")
	}

	return unique
}

// NewSince filters a deduplicated batch down to records whose identity
// key is absent from the checkpoint. The checkpoint is not modified.
func (e *Engine) NewSince(records []models.JobRecord, checkpoint *models.KeySet) []models.JobRecord {
	if checkpoint == nil || checkpoint.Len() == 0 {
		return records
	}

	fresh := make([]models.JobRecord, 0, len(records))
	for _, rec := range records {
		if checkpoint.Contains(models.IdentityKey(&rec)) {
			continue
		}
		fresh = append(fresh, rec)
	}
	return fresh
}

// MarkSeen records every identity key in the batch into the checkpoint
// with the given run timestamp. Append-only: existing keys stay.
func (e *Engine) MarkSeen(records []models.JobRecord, checkpoint *models.KeySet, runAt time.Time) {
	for _, rec := range records {
		checkpoint.Add(models.IdentityKey(&rec), runAt)
	}
}
