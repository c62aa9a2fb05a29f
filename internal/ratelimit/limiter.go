// Package ratelimit implements fixed-window attempt counting keyed by
// throttle identity. Two scopes use it: the login gate (disguised as a
// validation failure) and the api throttle (a plain 429).
package ratelimit

import (
	"context"
	"time"
)

// CounterStore is the shared key-value counter backing a Limiter.
// Increment must be atomic per key so concurrent requests from the same
// identity cannot slip past the configured cap. The in-memory store
// suits a single process; the Redis store suits multi-process
// deployments.
type CounterStore interface {
	// Increment adds one attempt to key, starting a window of the given
	// length if none is active, and returns the new count.
	Increment(ctx context.Context, key string, window time.Duration) (int, error)

	// Attempts returns the current count for key, zero if the window
	// has elapsed.
	Attempts(ctx context.Context, key string) (int, error)

	// Clear removes the counter for key immediately.
	Clear(ctx context.Context, key string) error

	// AvailableIn returns the remaining window for key, zero if none.
	AvailableIn(ctx context.Context, key string) (time.Duration, error)
}

// Limiter enforces a per-key attempt cap over a rolling window.
type Limiter struct {
	store CounterStore
}

// NewLimiter creates a Limiter backed by the given counter store.
func NewLimiter(store CounterStore) *Limiter {
	return &Limiter{store: store}
}

// TooManyAttempts reports whether key has reached max attempts in the
// current window. The check is synchronous and never blocks.
func (l *Limiter) TooManyAttempts(ctx context.Context, key string, max int) (bool, error) {
	attempts, err := l.store.Attempts(ctx, key)
	if err != nil {
		return false, err
	}
	return attempts >= max, nil
}

// Hit records one attempt against key and returns the new count.
func (l *Limiter) Hit(ctx context.Context, key string, decay time.Duration) (int, error) {
	return l.store.Increment(ctx, key, decay)
}

// Clear resets the counter for key immediately.
func (l *Limiter) Clear(ctx context.Context, key string) error {
	return l.store.Clear(ctx, key)
}

// AvailableIn returns how long until key's window resets.
func (l *Limiter) AvailableIn(ctx context.Context, key string) (time.Duration, error) {
	return l.store.AvailableIn(ctx, key)
}
