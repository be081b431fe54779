package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used with the in-process event bus.
// Expired records are pruned lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]time.Time
}

// NewMemoryStore constructs an empty memory-backed idempotency store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]time.Time)}
}

// Reserve implements the Store interface.
func (s *MemoryStore) Reserve(_ context.Context, key string, now time.Time, ttl time.Duration) (bool, error) {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.records[key]
	if ok && now.Before(expiry) {
		return false, nil
	}
	s.records[key] = now.Add(ttl)

	// Opportunistic pruning keeps the map bounded without a sweeper.
	for existing, expiresAt := range s.records {
		if !now.Before(expiresAt) {
			delete(s.records, existing)
		}
	}
	return true, nil
}

// Release implements the Store interface.
func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
