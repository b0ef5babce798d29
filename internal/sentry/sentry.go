// Package sentry wraps the Sentry Go SDK for error tracking.
// Every helper is a no-op until Initialize has been called with a DSN.
package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/garyellow/faq-linebot-go/internal/ctxutil"
)

// Config holds Sentry configuration.
type Config struct {
	// DSN is the project DSN. Empty disables Sentry.
	DSN string

	// Environment identifies the deployment environment (e.g., "production", "staging").
	Environment string

	// Release identifies the application release version.
	Release string

	// SampleRate controls error sampling (0.0-1.0, default 1.0 = 100%).
	SampleRate float64

	// Debug enables Sentry SDK debug logging.
	Debug bool
}

// Initialize sets up the Sentry SDK.
// If DSN is empty, Sentry is disabled and nil is returned.
func Initialize(cfg Config) error {
	if cfg.DSN == "" {
		return nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 || sampleRate > 1 {
		sampleRate = 1.0
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	return nil
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureException captures an error and sends it to Sentry.
func CaptureException(err error) {
	sentry.CaptureException(err)
}

// CaptureExceptionWithContext captures err on the request hub (if any),
// tagged with the chat and user ids stored in ctx plus tags.
func CaptureExceptionWithContext(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if chatID := ctxutil.GetChatID(ctx); chatID != "" {
			scope.SetTag("chat_id", chatID)
		}
		if userID := ctxutil.GetUserID(ctx); userID != "" {
			scope.SetUser(sentry.User{ID: userID})
		}
		if requestID, ok := ctxutil.GetRequestID(ctx); ok && requestID != "" {
			scope.SetTag("request_id", requestID)
		}
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}

// CaptureRecovered reports a recovered panic value.
func CaptureRecovered(ctx context.Context, recovered any) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.Recover(recovered)
}
