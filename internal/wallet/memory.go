package wallet

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used in tests and single-process dev
// setups where credentials do not need to survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[memoryKey]*Credentials
}

type memoryKey struct {
	orgID  string
	userID string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[memoryKey]*Credentials)}
}

func (s *MemoryStore) Get(_ context.Context, orgID, userID string) (*Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	creds, ok := s.creds[memoryKey{orgID: orgID, userID: userID}]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *creds
	return &copied, nil
}

func (s *MemoryStore) Put(_ context.Context, creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey{orgID: creds.OrgID, userID: creds.UserID}
	if _, ok := s.creds[key]; ok {
		// first write wins, same as the ON CONFLICT DO NOTHING insert
		return nil
	}
	copied := *creds
	s.creds[key] = &copied
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, orgID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.creds[memoryKey{orgID: orgID, userID: userID}]
	return ok, nil
}
