// Package metrics defines the Prometheus metrics exported on /metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Match engine metrics
	MatchesTotal         *prometheus.CounterVec
	MatchDurationSeconds *prometheus.HistogramVec
	MatchScore           *prometheus.HistogramVec
	EntryHitsTotal       *prometheus.CounterVec

	// Message pipeline metrics
	MessagesTotal *prometheus.CounterVec
	RepliesTotal  *prometheus.CounterVec

	// Webhook metrics
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookRequestsTotal   *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterWaitDuration *prometheus.HistogramVec
	RateLimiterDropped      *prometheus.CounterVec
	RateLimiterActiveKeys   *prometheus.GaugeVec

	// Data source metrics
	DataSource *prometheus.GaugeVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		MatchesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_matches_total",
				Help: "Total number of match attempts by strategy and outcome",
			},
			[]string{"strategy", "outcome"}, // outcome: matched, no_match
		),

		MatchDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "faqbot_match_duration_seconds",
				Help:    "Time spent matching one message by strategy",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"strategy"},
		),

		MatchScore: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "faqbot_match_score",
				Help:    "Best score per match attempt by strategy",
				Buckets: []float64{0.05, 0.1, 0.15, 0.2, 0.25, 0.3, 0.5, 1, 2, 3},
			},
			[]string{"strategy"},
		),

		EntryHitsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_entry_hits_total",
				Help: "Total number of answers sent per catalog entry",
			},
			[]string{"entry"}, // entry: catalog index
		),

		MessagesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_messages_total",
				Help: "Total number of inbound messages by gate outcome",
			},
			[]string{"outcome"}, // outcome: answered, bot, channel, kind, empty, rate_limited, cooldown, error
		),

		RepliesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_replies_total",
				Help: "Total number of replies by kind and status",
			},
			[]string{"kind", "status"}, // kind: answer, no_match, rate_limit, error; status: success, error
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "faqbot_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"event_type"}, // event_type: message, join, leave, other
		),

		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_webhook_requests_total",
				Help: "Total number of webhook events by event type and status",
			},
			[]string{"event_type", "status"}, // status: success, error
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_http_errors_total",
				Help: "Total HTTP errors by type and module",
			},
			[]string{"error_type", "module"}, // error_type: invalid_signature, parse_error, reply_failed
		),

		RateLimiterWaitDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "faqbot_rate_limiter_wait_duration_seconds",
				Help:    "Time spent waiting for rate limiter token by limiter type",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5}, // 1ms to 5s
			},
			[]string{"limiter_type"}, // limiter_type: global
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_rate_limiter_dropped_total",
				Help: "Total number of messages dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: user, cooldown
		),

		RateLimiterActiveKeys: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "faqbot_rate_limiter_active_keys",
				Help: "Number of keys tracked by in-memory rate state",
			},
			[]string{"limiter_type"},
		),

		DataSource: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "faqbot_data_source_info",
				Help: "Source the FAQ data was loaded from (value is the entry or group count)",
			},
			[]string{"data", "source"}, // data: catalog, synonyms; source: r2, file, embedded
		),
	}

	return m
}

// RecordMatch records the outcome of one match attempt
func (m *Metrics) RecordMatch(strategy string, matched bool, index int, score, duration float64) {
	outcome := "no_match"
	if matched {
		outcome = "matched"
		m.EntryHitsTotal.WithLabelValues(strconv.Itoa(index)).Inc()
	}
	m.MatchesTotal.WithLabelValues(strategy, outcome).Inc()
	m.MatchDurationSeconds.WithLabelValues(strategy).Observe(duration)
	m.MatchScore.WithLabelValues(strategy).Observe(score)
}

// RecordMessage records how an inbound message left the gate
func (m *Metrics) RecordMessage(outcome string) {
	m.MessagesTotal.WithLabelValues(outcome).Inc()
}

// RecordReply records a reply delivery attempt
func (m *Metrics) RecordReply(kind, status string) {
	m.RepliesTotal.WithLabelValues(kind, status).Inc()
}

// RecordWebhook records a webhook event
func (m *Metrics) RecordWebhook(eventType, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration)
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, module string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}

// RecordRateLimiterWait records time spent waiting for rate limiter
func (m *Metrics) RecordRateLimiterWait(limiterType string, duration float64) {
	m.RateLimiterWaitDuration.WithLabelValues(limiterType).Observe(duration)
}

// RecordRateLimiterDrop records a message dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetRateLimiterActiveKeys sets the number of tracked keys
func (m *Metrics) SetRateLimiterActiveKeys(limiterType string, count int) {
	m.RateLimiterActiveKeys.WithLabelValues(limiterType).Set(float64(count))
}

// SetDataSource records where a data file was loaded from
func (m *Metrics) SetDataSource(data, source string, size int) {
	m.DataSource.DeletePartialMatch(prometheus.Labels{"data": data})
	m.DataSource.WithLabelValues(data, source).Set(float64(size))
}
