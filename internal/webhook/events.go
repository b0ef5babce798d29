package webhook

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/garyellow/faq-linebot-go/internal/bot"
)

// ToMessage converts a LINE event into a platform-neutral message.
// It returns false for events the bot never reacts to (follows, unsends,
// postbacks, ...), which are dropped before reaching the processor.
func ToMessage(event webhook.EventInterface) (bot.Message, bool) {
	switch e := event.(type) {
	case webhook.MessageEvent:
		msg := newMessage(e.Source, e.ReplyToken)
		msg.Kind = bot.KindOther
		switch content := e.Message.(type) {
		case webhook.TextMessageContent:
			msg.ID = content.Id
			msg.Kind = bot.KindContent
			msg.Text = content.Text
		case webhook.StickerMessageContent:
			msg.ID = content.Id
		case webhook.ImageMessageContent:
			msg.ID = content.Id
		}
		return msg, true
	case webhook.JoinEvent:
		return systemMessage(e.Source, e.ReplyToken), true
	case webhook.LeaveEvent:
		return systemMessage(e.Source, ""), true
	case webhook.MemberJoinedEvent:
		return systemMessage(e.Source, e.ReplyToken), true
	case webhook.MemberLeftEvent:
		return systemMessage(e.Source, ""), true
	default:
		return bot.Message{}, false
	}
}

func newMessage(source webhook.SourceInterface, replyToken string) bot.Message {
	userID := GetUserID(source)
	return bot.Message{
		AuthorID:    userID,
		AuthorIsBot: userID == "",
		ChannelID:   GetChatID(source),
		ReplyToken:  replyToken,
	}
}

func systemMessage(source webhook.SourceInterface, replyToken string) bot.Message {
	msg := newMessage(source, replyToken)
	msg.Kind = bot.KindSystem
	return msg
}

// eventMeta returns the webhook event id and whether LINE is redelivering it.
func eventMeta(event webhook.EventInterface) (string, *bool) {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return e.WebhookEventId, redelivery(e.DeliveryContext)
	case webhook.JoinEvent:
		return e.WebhookEventId, redelivery(e.DeliveryContext)
	case webhook.LeaveEvent:
		return e.WebhookEventId, redelivery(e.DeliveryContext)
	case webhook.MemberJoinedEvent:
		return e.WebhookEventId, redelivery(e.DeliveryContext)
	case webhook.MemberLeftEvent:
		return e.WebhookEventId, redelivery(e.DeliveryContext)
	default:
		return "", nil
	}
}

func redelivery(ctx *webhook.DeliveryContext) *bool {
	if ctx == nil {
		return nil
	}
	val := ctx.IsRedelivery
	return &val
}

// GetChatID extracts the chat ID from a LINE source.
// Returns user ID for personal chats, group ID for groups, room ID for rooms.
// Returns empty string if source type is unknown.
func GetChatID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.GroupId
	case webhook.RoomSource:
		return s.RoomId
	}
	return ""
}

// GetUserID extracts the user ID from a LINE source.
// LINE omits it for users who have not consented to share their profile in
// a group, and for events not caused by a user.
func GetUserID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	}
	return ""
}
