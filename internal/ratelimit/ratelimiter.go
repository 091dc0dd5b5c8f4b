package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultWindow = time.Minute

// Limiter decides whether a caller may issue another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// NoopLimiter allows all requests.
type NoopLimiter struct{}

func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

func (l *NoopLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}

// slidingWindow trims entries older than the window, admits the request when
// there is room and reports (allowed, count, reset_at_ms) atomically.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
	local count = redis.call('ZCARD', key)
	local allowed = 0
	if count < limit then
		redis.call('ZADD', key, now, member)
		count = count + 1
		allowed = 1
	end
	redis.call('PEXPIRE', key, window)

	local reset = now + window
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	if oldest[2] then
		reset = tonumber(oldest[2]) + window
	end
	return {allowed, count, reset}
`)

// RateLimiter implements distributed sliding window rate limiting using Redis
// sorted sets.
type RateLimiter struct {
	client *redis.Client
	window time.Duration
}

// NewRateLimiter creates a rate limiter with a one minute window
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, window: defaultWindow}
}

func redisKey(key string) string {
	return "ratelimit:" + key
}

// AllowWithDetails checks and records one request for key. A limit <= 0 means
// unlimited and is reported as remaining == -1 with a zero reset time.
func (rl *RateLimiter) AllowWithDetails(ctx context.Context, key string, limit int) (bool, int, time.Time, error) {
	if limit <= 0 {
		return true, -1, time.Time{}, nil
	}

	now := time.Now()
	res, err := slidingWindow.Run(ctx, rl.client,
		[]string{redisKey(key)},
		now.UnixMilli(),
		rl.window.Milliseconds(),
		limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("rate limit check returned %d values", len(res))
	}

	allowed := res[0] == 1
	remaining := limit - int(res[1])
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining, time.UnixMilli(res[2]), nil
}

// FixedLimiter applies the same per-minute limit to every key.
type FixedLimiter struct {
	rl    *RateLimiter
	limit int
}

// NewFixedLimiter returns a Limiter allowing perMinute requests per key
func NewFixedLimiter(rl *RateLimiter, perMinute int) *FixedLimiter {
	return &FixedLimiter{rl: rl, limit: perMinute}
}

func (l *FixedLimiter) Allow(ctx context.Context, key string) (bool, error) {
	allowed, _, _, err := l.rl.AllowWithDetails(ctx, key, l.limit)
	return allowed, err
}
