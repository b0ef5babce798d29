package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key prefixes of the Redis-backed stores.
const (
	WindowKeyPrefix   = "faqbot:ratelimit:"
	CooldownKeyPrefix = "faqbot:cooldown:"
)

// windowScript implements the fixed window atomically.
// KEYS[1] key; ARGV[1] now (ms); ARGV[2] window (ms); ARGV[3] max.
var windowScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'count', 'start')
local count = tonumber(v[1])
local start = tonumber(v[2])
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
if (not count) or (not start) or (now - start >= window) then
  redis.call('HSET', KEYS[1], 'count', 1, 'start', now)
  redis.call('PEXPIRE', KEYS[1], window)
  return 1
end
if count >= tonumber(ARGV[3]) then
  return 0
end
redis.call('HINCRBY', KEYS[1], 'count', 1)
return 1
`)

// cooldownScript records now unless the previous event is closer than the gap.
// KEYS[1] key; ARGV[1] now (ms); ARGV[2] gap (ms).
var cooldownScript = redis.NewScript(`
local last = tonumber(redis.call('GET', KEYS[1]))
local now = tonumber(ARGV[1])
local gap = tonumber(ARGV[2])
if last and now - last < gap then
  return 0
end
redis.call('SET', KEYS[1], now, 'PX', gap)
return 1
`)

// NewRedisClient creates a Redis client and verifies the connection with a PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// RedisWindow is a WindowLimiter shared across replicas through Redis.
// Entries expire on their own, so Sweep has nothing to do.
type RedisWindow struct {
	rdb    redis.Scripter
	config WindowConfig
}

// NewRedisWindow creates a Redis-backed fixed-window limiter.
func NewRedisWindow(rdb redis.Scripter, cfg WindowConfig) *RedisWindow {
	return &RedisWindow{rdb: rdb, config: cfg}
}

// CheckAndRecord implements Store.
func (r *RedisWindow) CheckAndRecord(ctx context.Context, key string, now time.Time) (bool, error) {
	allowed, err := windowScript.Run(ctx, r.rdb, []string{WindowKeyPrefix + key},
		now.UnixMilli(), r.config.Window.Milliseconds(), r.config.Max).Int()
	if err != nil {
		return false, fmt.Errorf("ratelimit: redis window %q: %w", key, err)
	}
	if allowed == 0 {
		r.config.Hooks.drop()
		return false, nil
	}
	return true, nil
}

// Sweep implements Store.
func (r *RedisWindow) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Len implements Store. Keys live in Redis and are not counted locally.
func (r *RedisWindow) Len() int {
	return 0
}

// RedisCooldown is a Cooldown shared across replicas through Redis.
type RedisCooldown struct {
	rdb   redis.Scripter
	gap   time.Duration
	hooks Hooks
}

// NewRedisCooldown creates a Redis-backed cooldown tracker.
func NewRedisCooldown(rdb redis.Scripter, gap time.Duration, hooks Hooks) *RedisCooldown {
	return &RedisCooldown{rdb: rdb, gap: gap, hooks: hooks}
}

// CheckAndRecord implements Store.
func (r *RedisCooldown) CheckAndRecord(ctx context.Context, key string, now time.Time) (bool, error) {
	if r.gap <= 0 {
		return true, nil
	}
	allowed, err := cooldownScript.Run(ctx, r.rdb, []string{CooldownKeyPrefix + key},
		now.UnixMilli(), r.gap.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("ratelimit: redis cooldown %q: %w", key, err)
	}
	if allowed == 0 {
		r.hooks.drop()
		return false, nil
	}
	return true, nil
}

// Sweep implements Store.
func (r *RedisCooldown) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Len implements Store. Keys live in Redis and are not counted locally.
func (r *RedisCooldown) Len() int {
	return 0
}
