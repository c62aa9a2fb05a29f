package ratelimit

import (
	"context"
	"sync"
	"time"
)

// counter tracks attempts within one window.
type counter struct {
	count     int
	expiresAt time.Time
}

// MemoryStore is a process-local CounterStore backed by a mutex-guarded
// map. Expired windows are dropped lazily on access and by an
// opportunistic sweep so memory stays bounded.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
	sweepN   int
}

// sweepThreshold is the number of operations between idle-entry sweeps.
const sweepThreshold = 5000

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

// Increment adds one attempt to key under the store lock, so the
// read-modify-write is atomic per key.
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(now)

	c, ok := s.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		c = &counter{expiresAt: now.Add(window)}
		s.counters[key] = c
	}
	c.count++
	return c.count, nil
}

// Attempts returns the live count for key.
func (s *MemoryStore) Attempts(_ context.Context, key string) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok {
		return 0, nil
	}
	if !now.Before(c.expiresAt) {
		delete(s.counters, key)
		return 0, nil
	}
	return c.count, nil
}

// Clear removes the counter for key.
func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
	return nil
}

// AvailableIn returns the remaining window for key.
func (s *MemoryStore) AvailableIn(_ context.Context, key string) (time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		return 0, nil
	}
	return c.expiresAt.Sub(now), nil
}

// sweep drops expired entries after a threshold of operations.
// Caller must hold s.mu.
func (s *MemoryStore) sweep(now time.Time) {
	s.sweepN++
	if s.sweepN < sweepThreshold {
		return
	}
	for k, c := range s.counters {
		if !now.Before(c.expiresAt) {
			delete(s.counters, k)
		}
	}
	s.sweepN = 0
}
