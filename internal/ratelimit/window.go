package ratelimit

import (
	"context"
	"sync"
	"time"
)

// WindowConfig configures a WindowLimiter.
type WindowConfig struct {
	Max    int           // messages allowed per window
	Window time.Duration // window length, starting at the first message
	Hooks  Hooks
}

// WindowLimiter allows at most Max events per key in a window that opens at
// the key's first event and resets once Window has elapsed.
type WindowLimiter struct {
	mu      sync.RWMutex
	entries map[string]*windowEntry
	config  WindowConfig
}

// windowEntry is guarded by its own mutex so keys never contend.
type windowEntry struct {
	mu      sync.Mutex
	count   int
	start   time.Time
	removed bool // set by Sweep; holders must re-fetch
}

// NewWindowLimiter creates an in-memory fixed-window limiter.
func NewWindowLimiter(cfg WindowConfig) *WindowLimiter {
	return &WindowLimiter{
		entries: make(map[string]*windowEntry),
		config:  cfg,
	}
}

// CheckAndRecord implements Store. It never returns an error.
func (wl *WindowLimiter) CheckAndRecord(_ context.Context, key string, now time.Time) (bool, error) {
	return wl.Allow(key, now), nil
}

// Allow reports whether key may send another message at now and counts it.
func (wl *WindowLimiter) Allow(key string, now time.Time) bool {
	for {
		entry := wl.getOrCreateEntry(key)

		entry.mu.Lock()
		if entry.removed {
			entry.mu.Unlock()
			continue
		}

		if entry.count == 0 || now.Sub(entry.start) >= wl.config.Window {
			entry.count = 1
			entry.start = now
			entry.mu.Unlock()
			return true
		}

		if entry.count >= wl.config.Max {
			entry.mu.Unlock()
			wl.config.Hooks.drop()
			return false
		}

		entry.count++
		entry.mu.Unlock()
		return true
	}
}

func (wl *WindowLimiter) getOrCreateEntry(key string) *windowEntry {
	wl.mu.RLock()
	entry, exists := wl.entries[key]
	wl.mu.RUnlock()

	if exists {
		return entry
	}

	wl.mu.Lock()
	defer wl.mu.Unlock()

	// Double-check after acquiring write lock
	entry, exists = wl.entries[key]
	if exists {
		return entry
	}

	entry = &windowEntry{}
	wl.entries[key] = entry
	return entry
}

// Sweep implements Store.
func (wl *WindowLimiter) Sweep(_ context.Context, now time.Time) (int, error) {
	wl.mu.Lock()
	removed := 0
	for key, entry := range wl.entries {
		entry.mu.Lock()
		if entry.count == 0 || now.Sub(entry.start) >= wl.config.Window {
			entry.removed = true
			delete(wl.entries, key)
			removed++
		}
		entry.mu.Unlock()
	}
	active := len(wl.entries)
	wl.mu.Unlock()

	wl.config.Hooks.update(active)
	return removed, nil
}

// Len implements Store.
func (wl *WindowLimiter) Len() int {
	wl.mu.RLock()
	defer wl.mu.RUnlock()
	return len(wl.entries)
}
