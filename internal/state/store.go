package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore persists snapshots as JSON in a single file
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store writing to the given file path,
// if path is empty it defaults to "stackform.state.json" in the current
// directory
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = "stackform.state.json"
	}

	return &FileStore{path: path}
}

// Path returns the location of the state file
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the snapshot from the state file, if the file does not
// exist a new empty snapshot is returned
func (f *FileStore) Load() (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSnapshot(), nil
		}

		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	s := &Snapshot{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("state file %s is corrupt: %w", f.path, err)
	}

	if s.Version > CurrentVersion {
		return nil, fmt.Errorf("state file %s was written by a newer version (state version %d)", f.path, s.Version)
	}

	if s.Outputs == nil {
		s.Outputs = map[string]OutputState{}
	}

	return s, nil
}

// Save persists the snapshot to the state file, the serial is
// incremented on every save and the write is atomic
func (f *FileStore) Save(s *Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s.Serial++
	s.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// write to a temporary file first so the state file is replaced
	// atomically
	tmpFile := f.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}

	if err := os.Rename(tmpFile, f.path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to save state file: %w", err)
	}

	return nil
}
