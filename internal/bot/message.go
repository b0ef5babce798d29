// Package bot decides whether and how the assistant answers a chat message.
//
// Messages arrive platform-neutral (see Message). The Processor gates them
// through the eligibility filter, the per-user rate limit and the per-channel
// cooldown, matches the text against the FAQ catalog and hands the reply to a
// Sender.
package bot

import "strings"

// Kind classifies an inbound event.
type Kind int

const (
	// KindOther covers anything the bot does not understand (stickers, images, postbacks).
	KindOther Kind = iota
	// KindContent is an ordinary text message.
	KindContent
	// KindSystem covers join/leave notices and membership changes.
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindSystem:
		return "system"
	default:
		return "other"
	}
}

// Message is one inbound chat event.
type Message struct {
	ID          string
	AuthorID    string
	AuthorIsBot bool
	ChannelID   string
	Kind        Kind
	Text        string
	ReplyToken  string
}

// Rejection reasons reported by Filter.
const (
	ReasonBotAuthor    = "bot_author"
	ReasonOtherChannel = "other_channel"
	ReasonNotContent   = "not_content"
	ReasonEmptyText    = "empty_text"
)

// Filter is the static part of the eligibility predicate. Rate limit and
// cooldown are checked afterwards by the Processor since they mutate state.
type Filter struct {
	ChannelID string
}

// Reject returns why msg is ineligible, or "" when it may be answered.
func (f Filter) Reject(msg Message) string {
	switch {
	case msg.AuthorIsBot:
		return ReasonBotAuthor
	case msg.ChannelID != f.ChannelID:
		return ReasonOtherChannel
	case msg.Kind != KindContent:
		return ReasonNotContent
	case strings.TrimSpace(msg.Text) == "":
		return ReasonEmptyText
	}
	return ""
}

// Eligible reports whether msg passes the filter.
func (f Filter) Eligible(msg Message) bool {
	return f.Reject(msg) == ""
}
