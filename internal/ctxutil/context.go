// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	userIDKey    contextKey = "ctxutil.userID"
	chatIDKey    contextKey = "ctxutil.chatID"
	requestIDKey contextKey = "ctxutil.requestID"
	eventIDKey   contextKey = "ctxutil.eventID"
	messageIDKey contextKey = "ctxutil.messageID"
)

// WithUserID adds the message author's user ID to the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID retrieves the user ID from the context.
// Returns the user ID if found, empty string otherwise.
func GetUserID(ctx context.Context) string {
	return getString(ctx, userIDKey)
}

// WithChatID adds a chat ID (user, group, or room) to the context.
func WithChatID(ctx context.Context, chatID string) context.Context {
	return context.WithValue(ctx, chatIDKey, chatID)
}

// GetChatID retrieves the chat ID from the context.
// Returns the chat ID if found, empty string otherwise.
func GetChatID(ctx context.Context) string {
	return getString(ctx, chatIDKey)
}

// WithRequestID adds a request ID to the context for tracing.
// Request ID is generated per webhook request for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// WithEventID adds a LINE webhook event ID to the context.
func WithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, eventIDKey, eventID)
}

// GetEventID retrieves the webhook event ID from the context.
func GetEventID(ctx context.Context) string {
	return getString(ctx, eventIDKey)
}

// WithMessageID adds a LINE message ID to the context.
func WithMessageID(ctx context.Context, messageID string) context.Context {
	return context.WithValue(ctx, messageIDKey, messageID)
}

// GetMessageID retrieves the message ID from the context.
func GetMessageID(ctx context.Context) string {
	return getString(ctx, messageIDKey)
}

// PreserveTracing returns a context detached from ctx's cancellation that
// keeps its tracing values. Used for work that outlives the webhook request.
func PreserveTracing(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func getString(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
