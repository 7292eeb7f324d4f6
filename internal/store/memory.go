package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Nothing survives Close.
type MemoryStore struct {
	kvRepos

	mu     sync.Mutex
	values map[string]string
	writes map[string]int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		values: make(map[string]string),
		writes: make(map[string]int),
	}
	s.kvRepos = kvRepos{kv: s}
	return s
}

func (s *MemoryStore) GetValue(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) SetValue(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.writes[key]++
	return nil
}

func (s *MemoryStore) DeleteValue(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Writes returns how many times key has been written.
func (s *MemoryStore) Writes(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[key]
}

func (s *MemoryStore) Close() error { return nil }
