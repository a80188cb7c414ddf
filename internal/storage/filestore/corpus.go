package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

const (
	consolidatedFile = "jobs_consolidated.json"
	runReportFile    = "run_report.json"
)

// CorpusStore writes run outputs (per-source lists, consolidated corpus,
// run report) as JSON files under one data directory, using the same
// atomic-replace discipline as snapshots.
type CorpusStore struct {
	dir    string
	logger arbor.ILogger
}

// NewCorpusStore creates a corpus store rooted at dir.
func NewCorpusStore(dir string, logger arbor.ILogger) interfaces.CorpusStore {
	return &CorpusStore{dir: dir, logger: logger}
}

// SaveSourceRecords writes one source's records to jobs_<platform>.json.
func (s *CorpusStore) SaveSourceRecords(ctx context.Context, platform models.Platform, records []models.JobRecord) error {
	path := filepath.Join(s.dir, fmt.Sprintf("jobs_%s.json", platform))
	if err := s.writeJSON(path, records); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info().
			Str("platform", string(platform)).
			Int("count", len(records)).
			Str("path", path).
			Msg("Source records saved")
	}
	return nil
}

// SaveConsolidated fully replaces the consolidated corpus file.
func (s *CorpusStore) SaveConsolidated(ctx context.Context, records []models.JobRecord) error {
	return s.writeJSON(filepath.Join(s.dir, consolidatedFile), records)
}

// LoadConsolidated reads the consolidated corpus from the previous run.
// A missing file yields an empty corpus.
func (s *CorpusStore) LoadConsolidated(ctx context.Context) ([]models.JobRecord, error) {
	path := filepath.Join(s.dir, consolidatedFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", path, err)
	}

	var records []models.JobRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse corpus %s: %w", path, err)
	}
	return records, nil
}

// SaveRunReport writes the run report.
func (s *CorpusStore) SaveRunReport(ctx context.Context, report *models.RunReport) error {
	return s.writeJSON(filepath.Join(s.dir, runReportFile), report)
}

func (s *CorpusStore) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
