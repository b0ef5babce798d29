package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/garyellow/faq-linebot-go/internal/ctxutil"
	domerrors "github.com/garyellow/faq-linebot-go/internal/errors"
	"github.com/garyellow/faq-linebot-go/internal/logger"
	"github.com/garyellow/faq-linebot-go/internal/match"
	"github.com/garyellow/faq-linebot-go/internal/metrics"
	"github.com/garyellow/faq-linebot-go/internal/ratelimit"
	"github.com/garyellow/faq-linebot-go/internal/sentry"
)

// Fixed replies sent outside the FAQ answers.
const (
	ErrorReply     = "I encountered an error while processing your question. Please try again later!"
	RateLimitReply = "You're sending messages too quickly. Please wait a moment before asking again."
)

// Reply kinds used for metrics and logs.
const (
	replyAnswer    = "answer"
	replyNoMatch   = "no_match"
	replyRateLimit = "rate_limit"
	replyError     = "error"
)

// Outcome describes what happened to one inbound message.
type Outcome string

const (
	OutcomeIgnored     Outcome = "ignored"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeCooldown    Outcome = "cooldown"
	OutcomeAnswered    Outcome = "answered"
	OutcomeNoMatch     Outcome = "no_match"
	OutcomeFailed      Outcome = "failed"
)

// Sender delivers a text reply to the channel msg came from.
type Sender interface {
	Send(ctx context.Context, msg Message, text string) error
}

// Processor handles the core logic of answering messages.
// It is safe for concurrent use; all mutable state lives in the stores.
type Processor struct {
	filter   Filter
	matcher  match.Matcher
	users    ratelimit.Store
	channels ratelimit.Store
	sender   Sender
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// ProcessorConfig holds configuration for creating a new Processor.
type ProcessorConfig struct {
	ChannelID   string
	Matcher     match.Matcher
	UserLimiter ratelimit.Store // keyed by author id
	Cooldown    ratelimit.Store // keyed by channel id
	Sender      Sender
	Logger      *logger.Logger   // optional
	Metrics     *metrics.Metrics // optional
	Clock       func() time.Time // optional, defaults to time.Now
}

// NewProcessor creates a new message processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Processor{
		filter:   Filter{ChannelID: cfg.ChannelID},
		matcher:  cfg.Matcher,
		users:    cfg.UserLimiter,
		channels: cfg.Cooldown,
		sender:   cfg.Sender,
		logger:   log.WithModule("bot"),
		metrics:  cfg.Metrics,
		now:      now,
	}
}

// Process runs msg through the gate and replies when it is eligible.
//
// Gate order: filter, per-user rate limit (answered with RateLimitReply),
// per-channel cooldown (dropped silently), then matching. Every message that
// passes the gate gets exactly one reply.
func (p *Processor) Process(ctx context.Context, msg Message) Outcome {
	ctx = ctxutil.WithChatID(ctx, msg.ChannelID)
	ctx = ctxutil.WithUserID(ctx, msg.AuthorID)
	if msg.ID != "" {
		ctx = ctxutil.WithMessageID(ctx, msg.ID)
	}

	outcome := p.process(ctx, msg)
	if p.metrics != nil {
		p.metrics.RecordMessage(string(outcome))
	}
	return outcome
}

func (p *Processor) process(ctx context.Context, msg Message) Outcome {
	if reason := p.filter.Reject(msg); reason != "" {
		p.logger.WithField("reason", reason).
			WithField("kind", msg.Kind.String()).
			DebugContext(ctx, "Message ignored")
		return OutcomeIgnored
	}

	switch err := p.admit(ctx, msg, p.now()); {
	case domerrors.IsRateLimited(err):
		p.logger.WarnContext(ctx, "User rate limit exceeded")
		if err := p.send(ctx, msg, RateLimitReply, replyRateLimit); err != nil {
			p.logger.WithError(err).ErrorContext(ctx, "Failed to send rate limit warning")
		}
		return OutcomeRateLimited
	case errors.Is(err, domerrors.ErrCooldown):
		p.logger.DebugContext(ctx, "Channel in cooldown, dropping message")
		return OutcomeCooldown
	}

	result, err := p.match(ctx, msg.Text)
	if err != nil {
		p.logger.WithError(err).ErrorContext(ctx, "Matching failed")
		sentry.CaptureExceptionWithContext(ctx, err, domerrors.Tags(err))
		p.fallback(ctx, msg)
		return OutcomeFailed
	}

	kind, outcome := replyAnswer, OutcomeAnswered
	if !result.Matched {
		kind, outcome = replyNoMatch, OutcomeNoMatch
	}

	log := p.logger.WithField("strategy", p.matcher.Name()).
		WithField("score", result.Score).
		WithField("entry", result.Index)
	if err := p.send(ctx, msg, match.Reply(result), kind); err != nil {
		log.WithError(err).ErrorContext(ctx, "Failed to deliver reply")
		sentry.CaptureExceptionWithContext(ctx, err, domerrors.Tags(err))
		p.fallback(ctx, msg)
		return OutcomeFailed
	}

	log.InfoContext(ctx, "Replied to message")
	return outcome
}

// admit applies the per-user window, then the per-channel cooldown. It
// returns ErrRateLimited or ErrCooldown when msg must not be answered.
func (p *Processor) admit(ctx context.Context, msg Message, now time.Time) error {
	if !p.check(ctx, p.users, "user", msg.AuthorID, now) {
		return domerrors.ErrRateLimited
	}
	if !p.check(ctx, p.channels, "channel", msg.ChannelID, now) {
		return domerrors.ErrCooldown
	}
	return nil
}

// check consults store and records the event. Store failures fail open so a
// broken shared backend never silences the bot.
func (p *Processor) check(ctx context.Context, store ratelimit.Store, scope, key string, now time.Time) bool {
	if store == nil {
		return true
	}
	allowed, err := store.CheckAndRecord(ctx, key, now)
	if err != nil {
		p.logger.WithError(err).WithField("scope", scope).WarnContext(ctx, "Rate state unavailable, allowing message")
		return true
	}
	if !allowed && p.metrics != nil {
		p.metrics.RecordRateLimiterDrop(scope)
	}
	return allowed
}

// match runs the matcher, converting a panic into an error.
func (p *Processor) match(ctx context.Context, text string) (result match.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithField("panic", r).
				WithField("stack", string(debug.Stack())).
				ErrorContext(ctx, "Matcher panicked")
			err = domerrors.Wrap("bot", "match", fmt.Errorf("matcher panic: %v", r))
		}
	}()

	start := time.Now()
	result = p.matcher.Match(text)
	if p.metrics != nil {
		p.metrics.RecordMatch(p.matcher.Name(), result.Matched, result.Index, result.Score, time.Since(start).Seconds())
	}
	return result, nil
}

func (p *Processor) send(ctx context.Context, msg Message, text, kind string) error {
	err := p.sender.Send(ctx, msg, text)
	if p.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		p.metrics.RecordReply(kind, status)
	}
	if err != nil {
		return domerrors.Wrap("bot", kind, fmt.Errorf("%w: %w", domerrors.ErrDelivery, err))
	}
	return nil
}

// fallback makes one attempt at ErrorReply; a second failure is only logged.
func (p *Processor) fallback(ctx context.Context, msg Message) {
	if err := p.send(ctx, msg, ErrorReply, replyError); err != nil {
		p.logger.WithError(err).ErrorContext(ctx, "Failed to deliver error reply")
	}
}
