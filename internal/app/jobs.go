package app

import (
	"context"
	"time"

	"github.com/garyellow/faq-linebot-go/internal/ratelimit"
)

// sweepRateState periodically evicts rate-state entries whose allowance has
// fully reset, keeping the in-memory stores bounded by active senders.
func (a *Application) sweepRateState(ctx context.Context) {
	interval := a.cfg.RateLimit.SweepInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runSweep(ctx, time.Now())
		}
	}
}

func (a *Application) runSweep(ctx context.Context, now time.Time) {
	stores := []struct {
		name  string
		store ratelimit.Store
	}{
		{"user", a.userLimiter},
		{"channel", a.cooldown},
	}
	for _, s := range stores {
		removed, err := s.store.Sweep(ctx, now)
		if err != nil {
			a.logger.WithError(err).WithField("store", s.name).Warn("Rate state sweep failed")
			continue
		}
		if removed > 0 {
			a.logger.WithField("store", s.name).
				WithField("removed", removed).
				Debug("Rate state swept")
		}
	}
}
