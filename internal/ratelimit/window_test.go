package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestWindowLimiter_EleventhMessageRejected(t *testing.T) {
	t.Parallel()
	wl := NewWindowLimiter(WindowConfig{Max: 10, Window: time.Minute})

	for i := range 10 {
		assert.True(t, wl.Allow("U1", epoch.Add(time.Duration(i)*time.Second)), "message %d", i+1)
	}
	assert.False(t, wl.Allow("U1", epoch.Add(30*time.Second)), "message 11")
	// Rejected messages are not counted.
	assert.False(t, wl.Allow("U1", epoch.Add(59*time.Second)))

	// Other users are unaffected.
	assert.True(t, wl.Allow("U2", epoch.Add(30*time.Second)))
}

func TestWindowLimiter_ResetsAtWindowBoundary(t *testing.T) {
	t.Parallel()
	wl := NewWindowLimiter(WindowConfig{Max: 2, Window: time.Minute})

	require.True(t, wl.Allow("U1", epoch))
	require.True(t, wl.Allow("U1", epoch.Add(time.Second)))
	assert.False(t, wl.Allow("U1", epoch.Add(time.Minute-time.Millisecond)))

	// The window opened at the first message, so it resets exactly one window later.
	assert.True(t, wl.Allow("U1", epoch.Add(time.Minute)))
	assert.True(t, wl.Allow("U1", epoch.Add(time.Minute+time.Second)))
	assert.False(t, wl.Allow("U1", epoch.Add(time.Minute+2*time.Second)))
}

func TestWindowLimiter_Sweep(t *testing.T) {
	t.Parallel()
	var active atomic.Int64
	wl := NewWindowLimiter(WindowConfig{
		Max:    1,
		Window: time.Minute,
		Hooks:  Hooks{OnUpdate: func(n int) { active.Store(int64(n)) }},
	})

	wl.Allow("old", epoch)
	wl.Allow("new", epoch.Add(30*time.Second))
	require.Equal(t, 2, wl.Len())

	removed, err := wl.Sweep(context.Background(), epoch.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, wl.Len())
	assert.Equal(t, int64(1), active.Load())

	// Swept keys start fresh; kept keys keep their count.
	assert.True(t, wl.Allow("old", epoch.Add(time.Minute)))
	assert.False(t, wl.Allow("new", epoch.Add(time.Minute)))
}

func TestWindowLimiter_DropHook(t *testing.T) {
	t.Parallel()
	var drops atomic.Int64
	wl := NewWindowLimiter(WindowConfig{Max: 1, Window: time.Minute, Hooks: Hooks{OnDrop: func() { drops.Add(1) }}})

	wl.Allow("U1", epoch)
	wl.Allow("U1", epoch)
	wl.Allow("U1", epoch)
	assert.Equal(t, int64(2), drops.Load())
}

func TestWindowLimiter_ConcurrentSameKey(t *testing.T) {
	t.Parallel()
	wl := NewWindowLimiter(WindowConfig{Max: 10, Window: time.Hour})

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			if ok, _ := wl.CheckAndRecord(context.Background(), "U1", epoch); ok {
				allowed.Add(1)
			}
		})
	}
	// Sweeping concurrently must not lose or add counts.
	wg.Go(func() {
		for range 20 {
			_, _ = wl.Sweep(context.Background(), epoch)
		}
	})
	wg.Wait()

	assert.Equal(t, int64(10), allowed.Load())
}
