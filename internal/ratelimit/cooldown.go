package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Cooldown enforces a minimum gap between two recorded events per key.
// A gap of zero or less disables it.
type Cooldown struct {
	mu    sync.Mutex
	last  map[string]time.Time
	gap   time.Duration
	hooks Hooks
}

// NewCooldown creates an in-memory cooldown tracker.
func NewCooldown(gap time.Duration, hooks Hooks) *Cooldown {
	return &Cooldown{
		last:  make(map[string]time.Time),
		gap:   gap,
		hooks: hooks,
	}
}

// CheckAndRecord implements Store. It never returns an error.
func (c *Cooldown) CheckAndRecord(_ context.Context, key string, now time.Time) (bool, error) {
	return c.Allow(key, now), nil
}

// Allow reports whether at least gap has passed since the last recorded event
// for key and, if so, records now.
func (c *Cooldown) Allow(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.last[key]; ok && now.Sub(last) < c.gap {
		c.hooks.drop()
		return false
	}
	c.last[key] = now
	return true
}

// Sweep implements Store.
func (c *Cooldown) Sweep(_ context.Context, now time.Time) (int, error) {
	c.mu.Lock()
	removed := 0
	for key, last := range c.last {
		if now.Sub(last) >= c.gap {
			delete(c.last, key)
			removed++
		}
	}
	active := len(c.last)
	c.mu.Unlock()

	c.hooks.update(active)
	return removed, nil
}

// Len implements Store.
func (c *Cooldown) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.last)
}
