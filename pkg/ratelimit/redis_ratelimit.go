package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed-window limiter backed by Redis, shared across
// instances. Used for the public HTTP surface; websocket connections use the
// in-process WindowLimiter since their state is instance-local anyway.
type RedisRateLimiter struct {
	client    *redis.Client
	keyPrefix string
}

// RateLimitInfo describes the state of a window after a request.
type RateLimitInfo struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"reset_time"`
}

// NewRedisRateLimiter wraps an existing Redis client.
func NewRedisRateLimiter(client *redis.Client, keyPrefix string) *RedisRateLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RedisRateLimiter{client: client, keyPrefix: keyPrefix}
}

// Allow atomically counts a request in the key's current window and reports
// whether it was within limit.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	allowed, _, err := r.AllowWithInfo(ctx, key, limit, window)
	return allowed, err
}

// AllowWithInfo is Allow plus remaining/reset details for response headers.
func (r *RedisRateLimiter) AllowWithInfo(ctx context.Context, key string, limit int, window time.Duration) (bool, *RateLimitInfo, error) {
	redisKey := r.keyPrefix + key

	// INCR + EXPIRE-on-first-hit in one round trip. The script returns the
	// new count and the window TTL so callers can compute reset time.
	script := redis.NewScript(`
		local count = redis.call('INCR', KEYS[1])
		if count == 1 then
			redis.call('PEXPIRE', KEYS[1], ARGV[1])
		end
		local ttl = redis.call('PTTL', KEYS[1])
		return {count, ttl}
	`)

	result, err := script.Run(ctx, r.client, []string{redisKey}, window.Milliseconds()).Result()
	if err != nil {
		return false, nil, fmt.Errorf("redis script execution failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return false, nil, fmt.Errorf("invalid script result")
	}

	count, _ := values[0].(int64)
	ttlMs, _ := values[1].(int64)

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	info := &RateLimitInfo{
		Limit:     limit,
		Remaining: remaining,
		ResetTime: time.Now().Add(time.Duration(ttlMs) * time.Millisecond),
	}

	return int(count) <= limit, info, nil
}

// Reset clears the window for a key.
func (r *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (r *RedisRateLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
