package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/garyellow/faq-linebot-go/internal/bot"
	domerrors "github.com/garyellow/faq-linebot-go/internal/errors"
	"github.com/garyellow/faq-linebot-go/internal/lineutil"
	"github.com/garyellow/faq-linebot-go/internal/logger"
	"github.com/garyellow/faq-linebot-go/internal/metrics"
)

// MessagingClient is the subset of the LINE Messaging API used for replies.
// *messaging_api.MessagingApiAPI satisfies it.
type MessagingClient interface {
	ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
	PushMessage(req *messaging_api.PushMessageRequest, xLineRetryKey string) (*messaging_api.PushMessageResponse, error)
}

// Throttle gates outbound API calls. *rate.Limiter satisfies it.
type Throttle interface {
	Wait(ctx context.Context) error
}

// errNoTarget is returned when neither reply nor push is possible.
var errNoTarget = errors.New("no reply token and no channel to push to")

// LineSender delivers replies through the LINE Messaging API.
//
// Replies use the event's reply token. When the token is missing, malformed
// or rejected as invalid (expired or already used), the text is pushed to
// the channel instead. Every API call first waits on the global limiter.
type LineSender struct {
	client  MessagingClient
	limiter Throttle
	sender  *messaging_api.Sender
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// SenderConfig holds configuration for creating a LineSender.
type SenderConfig struct {
	Client     MessagingClient
	Limiter    Throttle         // optional
	SenderName string           // optional display name override
	Logger     *logger.Logger   // optional
	Metrics    *metrics.Metrics // optional
}

// NewLineSender creates a LineSender.
func NewLineSender(cfg SenderConfig) *LineSender {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &LineSender{
		client:  cfg.Client,
		limiter: cfg.Limiter,
		sender:  lineutil.NewSender(cfg.SenderName, ""),
		logger:  log.WithModule("line_sender"),
		metrics: cfg.Metrics,
	}
}

var _ bot.Sender = (*LineSender)(nil)

// Send implements bot.Sender.
func (s *LineSender) Send(ctx context.Context, msg bot.Message, text string) error {
	messages := []messaging_api.MessageInterface{lineutil.NewTextMessage(text, s.sender)}

	if len(msg.ReplyToken) >= lineutil.MinReplyTokenLength {
		if err := s.wait(ctx); err != nil {
			return err
		}
		_, err := s.client.ReplyMessage(&messaging_api.ReplyMessageRequest{
			ReplyToken: msg.ReplyToken,
			Messages:   messages,
		})
		if err == nil {
			return nil
		}
		if !isInvalidReplyToken(err) {
			return domerrors.Wrap("webhook", "reply_message", err)
		}
		s.logger.WithError(err).DebugContext(ctx, "Reply token rejected, falling back to push")
	}

	if msg.ChannelID == "" {
		return errNoTarget
	}
	if err := s.wait(ctx); err != nil {
		return err
	}
	if _, err := s.client.PushMessage(&messaging_api.PushMessageRequest{
		To:       msg.ChannelID,
		Messages: messages,
	}, ""); err != nil {
		return domerrors.Wrap("webhook", "push_message", err)
	}
	return nil
}

func (s *LineSender) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	start := time.Now()
	if err := s.limiter.Wait(ctx); err != nil {
		if s.metrics != nil {
			s.metrics.RecordRateLimiterDrop("global")
		}
		return fmt.Errorf("wait for global rate limit: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordRateLimiterWait("global", time.Since(start).Seconds())
	}
	return nil
}

func isInvalidReplyToken(err error) bool {
	return strings.Contains(err.Error(), "Invalid reply token")
}
