package sessionstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Suitable for a single-instance
// deployment; swap for an external cache behind the same interface when
// running more than one replica.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Data
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Data)}
}

// Get returns the session for id, or ErrNotFound if absent or expired.
// Expired entries are removed on access.
func (s *MemoryStore) Get(_ context.Context, id string) (*Data, error) {
	s.mu.RLock()
	data, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(data.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	copy := data
	return &copy, nil
}

// Put stores or replaces the session for id.
func (s *MemoryStore) Put(_ context.Context, id string, data *Data) error {
	s.mu.Lock()
	s.sessions[id] = *data
	s.mu.Unlock()
	return nil
}

// Destroy removes the session for id. Destroying an absent session is not an
// error.
func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Sweep removes all expired sessions and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, data := range s.sessions {
		if now.After(data.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
