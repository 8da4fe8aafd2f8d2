package chat

import "context"

// Sender identifies who authored a chat message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// Message is a single rendered chat entry. It is never mutated after creation.
type Message struct {
	Text      string `json:"text"`
	Sender    Sender `json:"sender"`
	Timestamp int64  `json:"timestamp"` // epoch millis
}

// Session is a snapshot of the state owned by a Manager.
type Session struct {
	IsOpen  bool      `json:"is_open"`
	History []Message `json:"history"`
}

const (
	// KeyOpen stores the stringified open flag.
	KeyOpen = "chatOpen"
	// KeyHistory stores the JSON-encoded history.
	KeyHistory = "chatHistory"

	// MaxHistory is the number of most recent messages kept.
	MaxHistory = 50

	// DefaultContext tags every request with the conversation domain.
	DefaultContext = "photography_shoot_planning"

	// FallbackReply is shown whenever the transport call fails.
	FallbackReply = "Sorry, I encountered an error. Please try again."
)

// Store is the key-value persistence surface backing a session.
// Get reports ok=false when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Request is the payload sent to the assistant backend.
type Request struct {
	Message string `json:"message"`
	Context string `json:"context"`
}

// Transport performs the request/response call to the assistant backend.
type Transport interface {
	SendChatRequest(ctx context.Context, req Request) (string, error)
}

// Sink receives render commands. It is write-only from the manager's view.
type Sink interface {
	// SetOpen shows or hides the chat window.
	SetOpen(open bool) error
	// AppendMessage renders one message and scrolls to the bottom.
	AppendMessage(msg Message) error
	ShowTyping() error
	RemoveTyping() error
	// Reset drops every rendered message except a static greeting
	// that came with the page markup.
	Reset() error
	// SetInput replaces the contents of the input box.
	SetInput(text string) error
}
