// Package webhook receives LINE webhook callbacks, converts their events into
// platform-neutral messages for the bot, and delivers the replies.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/garyellow/faq-linebot-go/internal/bot"
	"github.com/garyellow/faq-linebot-go/internal/ctxutil"
	"github.com/garyellow/faq-linebot-go/internal/logger"
	"github.com/garyellow/faq-linebot-go/internal/metrics"
	"github.com/garyellow/faq-linebot-go/internal/sentry"
)

// MaxEventsPerWebhook bounds the events processed from one callback.
const MaxEventsPerWebhook = 100

// Processor answers one platform-neutral message. *bot.Processor satisfies it.
type Processor interface {
	Process(ctx context.Context, msg bot.Message) bot.Outcome
}

// Handler handles LINE webhook events
type Handler struct {
	channelSecret  string
	processor      Processor
	metrics        *metrics.Metrics
	logger         *logger.Logger
	processTimeout time.Duration
	wg             sync.WaitGroup // WaitGroup for async event processing
}

// HandlerConfig holds configuration for creating a new Handler
type HandlerConfig struct {
	ChannelSecret  string
	Processor      Processor
	Metrics        *metrics.Metrics // optional
	Logger         *logger.Logger   // optional
	ProcessTimeout time.Duration    // per batch, 0 = no deadline
}

// NewHandler creates a new webhook handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.ChannelSecret == "" {
		return nil, errors.New("channel secret is required")
	}
	if cfg.Processor == nil {
		return nil, errors.New("processor is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		channelSecret:  cfg.ChannelSecret,
		processor:      cfg.Processor,
		metrics:        cfg.Metrics,
		logger:         log.WithModule("webhook"),
		processTimeout: cfg.ProcessTimeout,
	}, nil
}

// Handle is the Gin handler for the webhook endpoint
func (h *Handler) Handle(c *gin.Context) {
	// 1. Parse request and verify signature
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.WarnContext(c.Request.Context(), "Invalid webhook signature")
			h.recordHTTPError("invalid_signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).ErrorContext(c.Request.Context(), "Failed to parse webhook request")
			h.recordHTTPError("parse_error")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	// 2. Return 200 OK immediately (LINE requirement)
	c.Status(http.StatusOK)

	if len(cb.Events) > MaxEventsPerWebhook {
		h.logger.WithField("event_count", len(cb.Events)).
			WithField("limit", MaxEventsPerWebhook).
			Warn("Too many events in webhook batch; truncating")
		cb.Events = cb.Events[:MaxEventsPerWebhook]
	}

	// Copy events to avoid race condition after HTTP response completes
	events := make([]webhook.EventInterface, len(cb.Events))
	copy(events, cb.Events)

	// Request id set by the request logger survives the detached context.
	ctx := ctxutil.PreserveTracing(c.Request.Context())

	// 3. Process events asynchronously
	h.wg.Go(func() {
		h.processBatch(ctx, events)
	})
}

func (h *Handler) processBatch(ctx context.Context, events []webhook.EventInterface) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.WithField("panic", r).ErrorContext(ctx, "Panic in async event processing")
			sentry.CaptureRecovered(ctx, r)
		}
	}()

	if h.processTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.processTimeout)
		defer cancel()
	}

	for _, event := range events {
		h.processEvent(ctx, event)
	}
}

// processEvent handles a single webhook event.
func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface) {
	start := time.Now()
	eventType := fmt.Sprintf("%T", event)

	msg, ok := ToMessage(event)
	if !ok {
		h.logger.WithField("event_type", eventType).DebugContext(ctx, "Unsupported event type")
		return
	}

	eventID, isRedelivery := eventMeta(event)
	log := h.logger
	if eventID != "" {
		ctx = ctxutil.WithEventID(ctx, eventID)
	}
	if isRedelivery != nil {
		log = log.WithField("is_redelivery", *isRedelivery)
	}

	outcome := h.processor.Process(ctx, msg)

	duration := time.Since(start)
	if h.metrics != nil {
		status := "success"
		if outcome == bot.OutcomeFailed {
			status = "error"
		}
		h.metrics.RecordWebhook(msg.Kind.String(), status, duration.Seconds())
	}
	log.WithField("kind", msg.Kind.String()).
		WithField("outcome", string(outcome)).
		WithField("duration_ms", duration.Milliseconds()).
		DebugContext(ctx, "Event processed")
}

func (h *Handler) recordHTTPError(errorType string) {
	if h.metrics != nil {
		h.metrics.RecordHTTPError(errorType, "webhook")
	}
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
