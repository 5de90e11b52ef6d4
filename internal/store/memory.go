package store

import (
	"context"
	"sync"

	"github.com/donaldgifford/meli-client/internal/meli"
)

// MemoryStore keeps credentials for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]meli.Credentials
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]meli.Credentials)}
}

// LoadCredentials implements Store.
func (s *MemoryStore) LoadCredentials(_ context.Context, clientID string) (meli.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.creds[clientID]
	if !ok {
		return meli.Credentials{}, ErrNotFound
	}
	return c, nil
}

// SaveCredentials implements Store.
func (s *MemoryStore) SaveCredentials(_ context.Context, clientID string, c meli.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds[clientID] = c
	return nil
}

// DeleteCredentials implements Store.
func (s *MemoryStore) DeleteCredentials(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.creds, clientID)
	return nil
}

// Ping implements Store.
func (*MemoryStore) Ping(context.Context) error { return nil }

// Migrate implements Store.
func (*MemoryStore) Migrate(context.Context) error { return nil }

// Close implements Store.
func (*MemoryStore) Close() error { return nil }
