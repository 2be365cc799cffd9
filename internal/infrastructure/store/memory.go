// Package store provides the persistent key-value backends behind the
// extension state: an in-memory map for tests and development, a JSON file
// for single-node deployments, and Redis for shared deployments. All three
// hold values as raw JSON so readers decode into their own types.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/swytch/backend/internal/domain"
)

// MemoryStore is a thread-safe in-memory key-value store.
type MemoryStore struct {
	data  map[string]json.RawMessage
	mutex sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]json.RawMessage),
	}
}

// Get returns the stored values for the requested keys. Missing keys are
// absent from the result, not an error.
func (s *MemoryStore) Get(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
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

// Set stores the given items, overwriting existing values.
func (s *MemoryStore) Set(ctx context.Context, items map[string]any) error {
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
	return nil
}

// Remove deletes the given keys. Deleting a missing key is not an error.
func (s *MemoryStore) Remove(ctx context.Context, keys []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}
