package lineutil

// LINE API limits (rune counts unless noted).
// References: https://developers.line.biz/en/reference/messaging-api/
const (
	MaxTextMessageLength = 5000 // Text message max content length
	MaxMessagesPerReply  = 5    // Messages per reply or push request
	MaxSenderNameLength  = 20   // Sender display name override

	// MinReplyTokenLength rejects obviously malformed tokens before calling the API.
	MinReplyTokenLength = 10
)
