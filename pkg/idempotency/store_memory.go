package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process ReservationStore for development and tests.
// It provides the same check-and-set atomicity within a single process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time // key -> expiry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Reserve(_ context.Context, key, _ string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	// Sweep expired reservations so the map stays bounded by the number of
	// keys seen inside one TTL window.
	for k, expiry := range s.entries {
		if !now.Before(expiry) {
			delete(s.entries, k)
		}
	}

	if _, exists := s.entries[key]; exists {
		return false, nil
	}

	s.entries[key] = now.Add(ttl)

	return true, nil
}
