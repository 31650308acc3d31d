// Package ratelimit provides the per-user sliding-window batch limiter.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// =============================================================================
// BatchLimiter - sliding window over batch-request timestamps
// =============================================================================
//
// A request counts against the limit if it occurred within the last window.
// Redis keeps the window consistent across instances; without redis (or on
// redis errors) a mutex-guarded local map enforces the limit within one
// process.

// BatchLimiter bounds how many AI batches a user may start per window.
type BatchLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration

	mu    sync.Mutex
	local map[string][]time.Time

	now func() time.Time // injectable for tests
}

// NewBatchLimiter creates a limiter. redisClient may be nil.
func NewBatchLimiter(redisClient *redis.Client, limit int, window time.Duration) *BatchLimiter {
	return &BatchLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
		local:  make(map[string][]time.Time),
		now:    time.Now,
	}
}

// acquireScript prunes, counts and records in one atomic step so two
// instances can never both admit the final slot in the window.
var acquireScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local max_requests = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

local count = redis.call('ZCARD', key)
if count < max_requests then
	redis.call('ZADD', key, now, now .. '-' .. math.random())
	redis.call('PEXPIRE', key, window_ms * 2)
	return 1
end
return 0
`)

// TryAcquire checks the window and, when under the limit, counts the request
// in the same atomic step. This is the call batch processing uses; Allow and
// Record remain for callers that only probe or only count.
func (l *BatchLimiter) TryAcquire(ctx context.Context, userID string) bool {
	if l.redis != nil {
		now := l.now()
		result, err := acquireScript.Run(ctx, l.redis, []string{l.key(userID)},
			now.UnixMilli(),
			now.Add(-l.window).UnixMilli(),
			l.limit,
			l.window.Milliseconds(),
		).Int64()
		if err == nil {
			return result == 1
		}
		// Redis unreachable: enforce locally rather than failing open.
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	pruned := l.prune(l.local[userID], now)
	if len(pruned) >= l.limit {
		l.local[userID] = pruned
		return false
	}
	l.local[userID] = append(pruned, now)
	return true
}

// Allow reports whether the user is under the limit. It does not count the
// request; callers that proceed must call Record.
func (l *BatchLimiter) Allow(ctx context.Context, userID string) bool {
	if l.redis != nil {
		if allowed, err := l.allowRedis(ctx, userID); err == nil {
			return allowed
		}
		// Redis unreachable: enforce locally rather than failing open.
	}
	return l.allowLocal(userID)
}

// Record counts one batch request against the user's window.
func (l *BatchLimiter) Record(ctx context.Context, userID string) {
	now := l.now()

	if l.redis != nil {
		key := l.key(userID)
		member := fmt.Sprintf("%d", now.UnixNano())
		pipe := l.redis.Pipeline()
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member})
		pipe.PExpire(ctx, key, l.window*2)
		if _, err := pipe.Exec(ctx); err == nil {
			return
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.local[userID] = append(l.prune(l.local[userID], now), now)
}

// Remaining returns how many batch requests the user has left in the window.
func (l *BatchLimiter) Remaining(ctx context.Context, userID string) int {
	used := 0
	if l.redis != nil {
		if n, err := l.countRedis(ctx, userID); err == nil {
			used = n
		} else {
			used = l.countLocal(userID)
		}
	} else {
		used = l.countLocal(userID)
	}

	remaining := l.limit - used
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (l *BatchLimiter) key(userID string) string {
	return "ratelimit:batch:" + userID
}

func (l *BatchLimiter) allowRedis(ctx context.Context, userID string) (bool, error) {
	n, err := l.countRedis(ctx, userID)
	if err != nil {
		return false, err
	}
	return n < l.limit, nil
}

func (l *BatchLimiter) countRedis(ctx context.Context, userID string) (int, error) {
	now := l.now()
	key := l.key(userID)
	windowStart := now.Add(-l.window).UnixMilli()

	pipe := l.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", windowStart))
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(card.Val()), nil
}

func (l *BatchLimiter) allowLocal(userID string) bool {
	return l.countLocal(userID) < l.limit
}

func (l *BatchLimiter) countLocal(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	pruned := l.prune(l.local[userID], l.now())
	if len(pruned) == 0 {
		delete(l.local, userID)
	} else {
		l.local[userID] = pruned
	}
	return len(pruned)
}

// prune drops timestamps older than the window.
func (l *BatchLimiter) prune(stamps []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
