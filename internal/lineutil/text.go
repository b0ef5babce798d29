// Package lineutil provides helpers for building LINE messages within the
// Messaging API limits.
package lineutil

import (
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// NewTextMessage creates a text message, truncated to MaxTextMessageLength runes.
// sender may be nil to use the channel's default profile.
func NewTextMessage(text string, sender *messaging_api.Sender) *messaging_api.TextMessage {
	return &messaging_api.TextMessage{
		Text:   TruncateRunes(text, MaxTextMessageLength),
		Sender: sender,
	}
}

// NewSender returns a display-name override, or nil when name is blank.
func NewSender(name, iconURL string) *messaging_api.Sender {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &messaging_api.Sender{
		Name:    TruncateRunes(name, MaxSenderNameLength),
		IconUrl: iconURL,
	}
}

// TruncateRunes shortens text to at most maxRunes runes, marking the cut with
// "..." when there is room for it.
func TruncateRunes(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
