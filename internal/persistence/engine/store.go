// Package engine persists the grid engine's durable snapshot to a single
// JSON file on disk, writing atomically via write-to-temp-then-rename so a
// crash mid-write never corrupts the last good snapshot.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gridserver/pkg/gridengine"
)

// JSONStore implements gridengine.Store against a single file path.
type JSONStore struct {
	path string
}

// NewJSONStore returns a store rooted at path. The parent directory is
// created eagerly so the first Save never fails on a missing directory.
func NewJSONStore(path string) (*JSONStore, error) {
	if path == "" {
		return nil, errors.New("engine: state file path is required")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: create state dir %s: %w", dir, err)
	}
	return &JSONStore{path: path}, nil
}

// Load reads the snapshot file. A missing file is a fresh start: it
// returns (nil, nil) rather than an error.
func (s *JSONStore) Load() (*gridengine.PersistedState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("engine: read state file: %w", err)
	}
	var state gridengine.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("engine: unmarshal state file: %w", err)
	}
	return &state, nil
}

// Save writes the snapshot to a temp file in the same directory and
// renames it over the target path, so readers never observe a partial
// write.
func (s *JSONStore) Save(state *gridengine.PersistedState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("engine: marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".gridstate-*.tmp")
	if err != nil {
		return fmt.Errorf("engine: create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("engine: write temp state file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("engine: sync temp state file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("engine: close temp state file: %w", err)
	}
	if err = os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("engine: rename state file: %w", err)
	}
	return nil
}

var _ gridengine.Store = (*JSONStore)(nil)
