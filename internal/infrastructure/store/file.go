package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/swytch/backend/internal/domain"
)

// FileStore keeps the full key space in memory and mirrors every mutation to
// a single JSON file. Writes go through a temp file and rename so a crash
// never leaves a half-written state file.
type FileStore struct {
	path  string
	data  map[string]json.RawMessage
	mutex sync.RWMutex
}

// NewFileStore opens or creates a file-backed store at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		data: make(map[string]json.RawMessage),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read state file: %v", domain.ErrStorage, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return fmt.Errorf("%w: parse state file: %v", domain.ErrStorage, err)
	}
	return nil
}

// flush writes the full key space. Caller must hold the write lock.
func (s *FileStore) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode state: %v", domain.ErrStorage, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create state dir: %v", domain.ErrStorage, err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", domain.ErrStorage, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write state: %v", domain.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close state file: %v", domain.ErrStorage, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace state file: %v", domain.ErrStorage, err)
	}
	return nil
}

// Get returns the stored values for the requested keys.
func (s *FileStore) Get(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if value, ok := s.data[key]; ok {
			result[key] = value
		}
	}
	return result, nil
}

// Set stores the given items and persists the file.
func (s *FileStore) Set(ctx context.Context, items map[string]any) error {
	encoded := make(map[string]json.RawMessage, len(items))
	for key, value := range items {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("%w: encode %q: %v", domain.ErrStorage, key, err)
		}
		encoded[key] = data
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for key, value := range encoded {
		s.data[key] = value
	}
	return s.flush()
}

// Remove deletes the given keys and persists the file.
func (s *FileStore) Remove(ctx context.Context, keys []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	changed := false
	for _, key := range keys {
		if _, ok := s.data[key]; ok {
			delete(s.data, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.flush()
}
