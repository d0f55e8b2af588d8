package kvstore

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
}

// NewMemory creates a concurrency-safe in-memory store. It backs unit tests
// and dev mode when neither Postgres nor Redis is configured.
func NewMemory() Store {
	return &memoryStore{collections: make(map[string]map[string][]byte)}
}

func (s *memoryStore) Get(_ context.Context, collection, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.collections[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(value), nil
}

func (s *memoryStore) Set(_ context.Context, collection, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, ok := s.collections[collection]
	if !ok {
		records = make(map[string][]byte)
		s.collections[collection] = records
	}
	records[key] = clone(value)
	return nil
}

func (s *memoryStore) GetAll(_ context.Context, collection string) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.collections[collection]
	out := make([][]byte, 0, len(records))
	for _, value := range records {
		out = append(out, clone(value))
	}
	return out, nil
}

func (s *memoryStore) Delete(_ context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], key)
	return nil
}

// clone keeps callers from aliasing the stored byte slices.
func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
