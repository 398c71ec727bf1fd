package auth

import (
	"context"
	"sync"
)

// NewInMemoryRefreshStore returns a RefreshStore backed by an in-memory map, used by tests.
func NewInMemoryRefreshStore() *InMemoryRefreshStore {
	return &InMemoryRefreshStore{tokens: make(map[string]string)}
}

// InMemoryRefreshStore implements RefreshStore for tests. The server always
// uses the Postgres user repository.
type InMemoryRefreshStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// SetRefreshToken records token as the user's active refresh token. An empty token clears it.
func (s *InMemoryRefreshStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" {
		delete(s.tokens, userID)
		return nil
	}
	s.tokens[userID] = token
	return nil
}

// RefreshToken returns the user's active refresh token, or "" when none is stored.
func (s *InMemoryRefreshStore) RefreshToken(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[userID], nil
}
