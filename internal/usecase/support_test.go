package usecase

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/swytch/backend/internal/domain"
)

// fakeStore is an in-memory Store with injectable failures.
type fakeStore struct {
	mu         sync.Mutex
	data       map[string]json.RawMessage
	getErr     error
	setErr     error
	removeErr  error
	setCalls   int
	removeKeys []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]json.RawMessage)}
}

func (s *fakeStore) Get(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	result := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if value, ok := s.data[key]; ok {
			result[key] = value
		}
	}
	return result, nil
}

func (s *fakeStore) Set(ctx context.Context, items map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	if s.setErr != nil {
		return s.setErr
	}
	for key, value := range items {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		s.data[key] = raw
	}
	return nil
}

func (s *fakeStore) Remove(ctx context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removeKeys = append(s.removeKeys, keys...)
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

// decode reads a stored key into dest for assertions.
func (s *fakeStore) decode(key string, dest any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

// capturingBus records published events in order.
type capturingBus struct {
	mu     sync.Mutex
	events []domain.Event
}

func (b *capturingBus) Publish(evt domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
}

func (b *capturingBus) all() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Event, len(b.events))
	copy(out, b.events)
	return out
}

func (b *capturingBus) typesSeen() []domain.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]domain.EventType, len(b.events))
	for i, evt := range b.events {
		types[i] = evt.Type
	}
	return types
}
