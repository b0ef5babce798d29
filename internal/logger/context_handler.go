// Package logger provides structured logging utilities for the application.
package logger

import (
	"context"
	"log/slog"

	"github.com/garyellow/faq-linebot-go/internal/ctxutil"
)

// ContextHandler wraps another handler and adds the tracing values stored
// by ctxutil (user, chat, request, event and message ids) to every record.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler creates a new ContextHandler that wraps the provided handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// This delegates to the wrapped handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds non-empty tracing values from ctx before delegating.
// Canceling ctx does not affect record processing (per slog.Handler contract).
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx == nil {
		return h.handler.Handle(ctx, r)
	}

	requestID, _ := ctxutil.GetRequestID(ctx)
	for _, attr := range [...]struct{ key, value string }{
		{"user_id", ctxutil.GetUserID(ctx)},
		{"chat_id", ctxutil.GetChatID(ctx)},
		{"request_id", requestID},
		{"event_id", ctxutil.GetEventID(ctx)},
		{"message_id", ctxutil.GetMessageID(ctx)},
	} {
		if attr.value != "" {
			r.AddAttrs(slog.String(attr.key, attr.value))
		}
	}

	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler whose attributes consist of
// both the receiver's attributes and the arguments.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a new ContextHandler with the given group name prepended
// to the current group name.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}
