package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aquamarinepk/aqm"
)

// FileStore is the on-device key/value snapshot store. Each key is a single
// JSON document on disk. Reads never fail hard: a missing or unreadable key
// simply reports absence, so callers fall back to empty defaults.
type FileStore struct {
	dir    string
	logger aqm.Logger
}

func NewFileStore(dir string, logger aqm.Logger) *FileStore {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &FileStore{
		dir:    dir,
		logger: logger,
	}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get returns the stored value for key, and whether one was present.
func (s *FileStore) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Infof("cannot read %s snapshot, treating as absent: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

// Put writes the value for key atomically (temp file + rename), so a crash
// mid-write never leaves a truncated snapshot behind.
func (s *FileStore) Put(key string, value []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("cannot create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cannot write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cannot close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cannot replace snapshot: %w", err)
	}
	return nil
}

// Delete removes the stored value for key. Absence is not an error.
func (s *FileStore) Delete(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot delete snapshot: %w", err)
	}
	return nil
}
