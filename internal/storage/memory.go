package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and as a fallback when no
// storage path is configured. State does not survive restarts.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string // visitorID → key → value
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, visitorID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.data[visitorID][key]; ok {
		return v, nil
	}
	return "", ErrKeyNotFound
}

func (s *MemoryStore) Set(_ context.Context, visitorID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[visitorID] == nil {
		s.data[visitorID] = make(map[string]string)
	}
	s.data[visitorID][key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, visitorID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[visitorID], key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
