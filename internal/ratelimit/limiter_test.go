package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiterCapAndRecovery(t *testing.T) {
	store, clock := newTestStore()
	limiter := NewLimiter(store)
	ctx := context.Background()

	const max = 5
	key := "login|user@example.com|10.0.0.1"

	for i := 0; i < max; i++ {
		blocked, err := limiter.TooManyAttempts(ctx, key, max)
		if err != nil {
			t.Fatalf("TooManyAttempts: %v", err)
		}
		if blocked {
			t.Fatalf("attempt %d blocked before reaching cap", i+1)
		}
		if _, err := limiter.Hit(ctx, key, time.Minute); err != nil {
			t.Fatalf("Hit: %v", err)
		}
	}

	blocked, err := limiter.TooManyAttempts(ctx, key, max)
	if err != nil {
		t.Fatalf("TooManyAttempts: %v", err)
	}
	if !blocked {
		t.Error("attempt after cap was not blocked")
	}

	// The window elapsing lifts the block.
	clock.Advance(time.Minute + time.Second)
	blocked, err = limiter.TooManyAttempts(ctx, key, max)
	if err != nil {
		t.Fatalf("TooManyAttempts: %v", err)
	}
	if blocked {
		t.Error("still blocked after window elapsed")
	}
}

func TestLimiterClearLiftsBlock(t *testing.T) {
	store, _ := newTestStore()
	limiter := NewLimiter(store)
	ctx := context.Background()

	key := "login|user@example.com|10.0.0.1"
	for i := 0; i < 5; i++ {
		if _, err := limiter.Hit(ctx, key, time.Minute); err != nil {
			t.Fatalf("Hit: %v", err)
		}
	}

	if err := limiter.Clear(ctx, key); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	blocked, err := limiter.TooManyAttempts(ctx, key, 5)
	if err != nil {
		t.Fatalf("TooManyAttempts: %v", err)
	}
	if blocked {
		t.Error("still blocked after Clear")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	store, _ := newTestStore()
	limiter := NewLimiter(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := limiter.Hit(ctx, "login|a@example.com|10.0.0.1", time.Minute); err != nil {
			t.Fatalf("Hit: %v", err)
		}
	}

	blocked, err := limiter.TooManyAttempts(ctx, "login|b@example.com|10.0.0.1", 5)
	if err != nil {
		t.Fatalf("TooManyAttempts: %v", err)
	}
	if blocked {
		t.Error("unrelated key was blocked")
	}
}

func TestLoginKeyNormalization(t *testing.T) {
	testCases := []struct {
		name  string
		email string
		addr  string
		want  string
	}{
		{
			name:  "plain",
			email: "user@example.com",
			addr:  "10.0.0.1",
			want:  "login|user@example.com|10.0.0.1",
		},
		{
			name:  "case folded",
			email: "User@Example.COM",
			addr:  "10.0.0.1",
			want:  "login|user@example.com|10.0.0.1",
		},
		{
			name:  "accents stripped",
			email: "josé@example.com",
			addr:  "10.0.0.1",
			want:  "login|jose@example.com|10.0.0.1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LoginKey(tc.email, tc.addr); got != tc.want {
				t.Errorf("LoginKey: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoginKeySeparatesAddresses(t *testing.T) {
	a := LoginKey("user@example.com", "10.0.0.1")
	b := LoginKey("user@example.com", "10.0.0.2")
	if a == b {
		t.Error("same key for different addresses")
	}
}

func TestAPIKeys(t *testing.T) {
	if got, want := APIKeyForUser(42), "api|user:42"; got != want {
		t.Errorf("APIKeyForUser: got %q, want %q", got, want)
	}
	if got, want := APIKeyForAddr("10.0.0.1"), "api|ip:10.0.0.1"; got != want {
		t.Errorf("APIKeyForAddr: got %q, want %q", got, want)
	}
}
