package channel

import (
	"context"
	"time"
)

// InboundMessage is one line of text a user sent to the assistant.
type InboundMessage struct {
	ChannelName string
	SenderID    string
	SenderName  string
	ChatID      string
	MessageID   string // empty when the channel has no message ids
	Text        string
	Timestamp   time.Time
}

// OutboundMessage is an assistant reply addressed to a chat.
type OutboundMessage struct {
	ChatID  string
	Text    string
	ReplyTo string // MessageID of the question being answered, optional
}

// Channel is a messaging surface the assistant can serve besides the
// website widget.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg OutboundMessage) error
	OnMessage(handler func(InboundMessage))
	IsRunning() bool
}
