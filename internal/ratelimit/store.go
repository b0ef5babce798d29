// Package ratelimit provides the rate-state stores gating the bot: a
// per-user fixed-window message counter, a per-channel reply cooldown, and a
// token bucket throttling outbound API calls.
package ratelimit

import (
	"context"
	"time"
)

// Store records keyed events against a time-based allowance.
//
// CheckAndRecord reports whether an event for key at now is allowed and, if
// so, records it. Rejected events are not recorded. Updates for one key are
// serialized; distinct keys never contend.
type Store interface {
	CheckAndRecord(ctx context.Context, key string, now time.Time) (bool, error)
	// Sweep evicts entries whose allowance has fully reset at now and returns
	// how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
	// Len returns the number of tracked keys.
	Len() int
}

// Hooks are optional callbacks for metrics.
type Hooks struct {
	OnDrop   func()          // called for every rejected event
	OnUpdate func(count int) // called with the tracked key count after a sweep
}

func (h Hooks) drop() {
	if h.OnDrop != nil {
		h.OnDrop()
	}
}

func (h Hooks) update(n int) {
	if h.OnUpdate != nil {
		h.OnUpdate(n)
	}
}
