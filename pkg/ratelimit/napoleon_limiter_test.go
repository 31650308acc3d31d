package ratelimit

import (
	"context"
	"testing"
	"time"
)

func newTestLimiter(limit int) (*BatchLimiter, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewBatchLimiter(nil, limit, time.Hour)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestBatchLimiterWindow(t *testing.T) {
	ctx := context.Background()
	limiter, now := newTestLimiter(12)

	// 12 requests within the hour fill the window.
	for i := 0; i < 12; i++ {
		if !limiter.Allow(ctx, "user-1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
		limiter.Record(ctx, "user-1")
	}

	// The 13th check is rejected.
	if limiter.Allow(ctx, "user-1") {
		t.Fatal("13th request should be rejected")
	}
	if got := limiter.Remaining(ctx, "user-1"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}

	// Other users are unaffected.
	if !limiter.Allow(ctx, "user-2") {
		t.Error("other users must have their own window")
	}

	// Fast-forward past the window: all entries expire.
	*now = now.Add(61 * time.Minute)
	if !limiter.Allow(ctx, "user-1") {
		t.Fatal("requests older than the window must not count")
	}
	if got := limiter.Remaining(ctx, "user-1"); got != 12 {
		t.Errorf("Remaining = %d, want 12", got)
	}
}

func TestTryAcquireChecksAndCountsAtomically(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newTestLimiter(3)

	// Each successful acquire consumes a slot without a separate Record.
	for i := 0; i < 3; i++ {
		if !limiter.TryAcquire(ctx, "u") {
			t.Fatalf("acquire %d should succeed", i+1)
		}
	}
	if limiter.TryAcquire(ctx, "u") {
		t.Fatal("acquire past the limit should fail")
	}
	if got := limiter.Remaining(ctx, "u"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
}

func TestTryAcquireSingleSlotAdmitsOne(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newTestLimiter(12)

	// One slot left: of two competing acquires only one may win.
	for i := 0; i < 11; i++ {
		limiter.Record(ctx, "u")
	}

	first := limiter.TryAcquire(ctx, "u")
	second := limiter.TryAcquire(ctx, "u")
	if !first || second {
		t.Fatalf("acquires at the boundary = (%v, %v), want (true, false)", first, second)
	}
}

func TestTryAcquireWindowExpiry(t *testing.T) {
	ctx := context.Background()
	limiter, now := newTestLimiter(2)

	limiter.TryAcquire(ctx, "u")
	limiter.TryAcquire(ctx, "u")
	if limiter.TryAcquire(ctx, "u") {
		t.Fatal("window full, acquire should fail")
	}

	*now = now.Add(61 * time.Minute)
	if !limiter.TryAcquire(ctx, "u") {
		t.Fatal("expired entries must free the window")
	}
}

func TestBatchLimiterPartialExpiry(t *testing.T) {
	ctx := context.Background()
	limiter, now := newTestLimiter(3)

	limiter.Record(ctx, "u")
	*now = now.Add(30 * time.Minute)
	limiter.Record(ctx, "u")
	limiter.Record(ctx, "u")

	if limiter.Allow(ctx, "u") {
		t.Fatal("3 requests in window, limit 3: should reject")
	}

	// 31 more minutes: only the first request has aged out.
	*now = now.Add(31 * time.Minute)
	if !limiter.Allow(ctx, "u") {
		t.Fatal("oldest request aged out, should allow")
	}
	if got := limiter.Remaining(ctx, "u"); got != 1 {
		t.Errorf("Remaining = %d, want 1", got)
	}
}
