// Package storage assembles the persistent stores a pipeline run needs:
// file-backed snapshots for checkpoint/ledger/corpus and a Badger-backed
// job archive.
package storage

import (
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/storage/badger"
	"github.com/ternarybob/colligo/internal/storage/filestore"
)

// Manager implements interfaces.StorageManager.
type Manager struct {
	db         *badger.BadgerDB
	checkpoint interfaces.KeySetStore
	ledger     interfaces.KeySetStore
	corpus     interfaces.CorpusStore
	jobs       interfaces.JobStorage
	logger     arbor.ILogger
}

// NewManager opens the Badger archive and wires the file stores under the
// configured data directory.
func NewManager(logger arbor.ILogger, config *common.StorageConfig) (interfaces.StorageManager, error) {
	db, err := badger.NewBadgerDB(logger, &config.Badger)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:         db,
		checkpoint: filestore.NewKeySetStore(resolvePath(config.DataDir, config.CheckpointFile), logger),
		ledger:     filestore.NewKeySetStore(resolvePath(config.DataDir, config.LedgerFile), logger),
		corpus:     filestore.NewCorpusStore(config.DataDir, logger),
		jobs:       badger.NewJobStorage(db, logger),
		logger:     logger,
	}

	logger.Info().Str("data_dir", config.DataDir).Msg("Storage manager initialized")

	return manager, nil
}

// Checkpoint returns the seen-keys snapshot store.
func (m *Manager) Checkpoint() interfaces.KeySetStore {
	return m.checkpoint
}

// Ledger returns the delivered-keys snapshot store.
func (m *Manager) Ledger() interfaces.KeySetStore {
	return m.ledger
}

// Corpus returns the corpus/report store.
func (m *Manager) Corpus() interfaces.CorpusStore {
	return m.corpus
}

// Jobs returns the job archive.
func (m *Manager) Jobs() interfaces.JobStorage {
	return m.jobs
}

// Close compacts and closes the database connection.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	if err := m.db.RunGC(); err != nil {
		m.logger.Warn().Err(err).Msg("Value log GC failed during shutdown")
	}
	return m.db.Close()
}

// resolvePath keeps absolute paths as-is and roots relative ones at the
// data directory.
func resolvePath(dataDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dataDir, path)
}
