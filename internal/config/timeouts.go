// Package config provides centralized timeout constants for the application.
//
// # LINE API Constraints
//
// LINE webhook has specific timing requirements:
//   - Webhook response: LINE expects a quick acknowledgment (200 OK)
//   - Reply token: single use, and expires shortly after the event
//
// Events are therefore processed after the 200 OK is written, with their own
// deadline (WebhookProcessing).
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing is the timeout for processing one webhook batch.
	// Matching is in-memory, so most of this budget is for the reply call
	// and its fallback.
	WebhookProcessing = 30 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout for webhook requests.
	// Should be short since LINE sends small JSON payloads.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	WebhookHTTPWrite = 65 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second
)

// Data loading timeouts
const (
	// DataLoad bounds fetching the catalog and synonym table from R2 at startup.
	// On timeout the loader falls back to local files or embedded data.
	DataLoad = 15 * time.Second

	// RedisDial bounds the initial ping to the shared rate-state store.
	RedisDial = 5 * time.Second

	// ReadinessCheckTimeout bounds dependency checks in /readyz.
	ReadinessCheckTimeout = 3 * time.Second
)

// Background job intervals
const (
	// RateLimitSweep is how often stale rate-state entries are evicted.
	RateLimitSweep = 5 * time.Minute

	// MetricsUpdateInterval is how often rate-state gauges are refreshed.
	MetricsUpdateInterval = time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	// Allows in-flight requests and queued replies to complete.
	GracefulShutdown = 30 * time.Second
)
