// Package filestore persists pipeline state as JSON documents on disk.
// Snapshots are replaced atomically: a temp file in the target directory
// is written, synced and renamed over the previous snapshot, so readers
// always see either the prior complete document or the new one.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// KeySetStore persists one KeySet snapshot file (dedupe checkpoint or
// delivery ledger).
type KeySetStore struct {
	path   string
	logger arbor.ILogger
}

// NewKeySetStore creates a store writing to the given file path.
func NewKeySetStore(path string, logger arbor.ILogger) interfaces.KeySetStore {
	return &KeySetStore{path: path, logger: logger}
}

// Load reads the current snapshot. A missing file yields an empty set.
func (s *KeySetStore) Load(ctx context.Context) (*models.KeySet, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return models.NewKeySet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", s.path, err)
	}

	set := models.NewKeySet()
	if err := json.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", s.path, err)
	}
	if set.Keys == nil {
		set.Keys = make(map[string]time.Time)
	}

	return set, nil
}

// Save atomically replaces the snapshot with the given set.
func (s *KeySetStore) Save(ctx context.Context, set *models.KeySet) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", s.path, err)
	}

	if s.logger != nil {
		s.logger.Debug().
			Str("path", s.path).
			Int("keys", set.Len()).
			Msg("Snapshot saved")
	}
	return nil
}

// writeAtomic writes data to path via a temp file and rename. The temp
// file lives in the target directory so the rename stays on one
// filesystem.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// Any failure from here on must not leave the temp file behind.
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
