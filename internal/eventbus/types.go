package eventbus

import "time"

// Topic represents an event topic.
type Topic string

const (
	TopicChatToggled     Topic = "chat_toggled"
	TopicMessageAppended Topic = "message_appended"
	TopicTransportFailed Topic = "transport_failed"
	TopicHistoryCleared  Topic = "history_cleared"
	TopicHistoryRestored Topic = "history_restored"
	TopicAssistantReply  Topic = "assistant_reply"
	TopicLLMRequest      Topic = "llm_request"
	TopicLLMResponse     Topic = "llm_response"
	TopicError           Topic = "error"
	TopicStatusChange    Topic = "status_change"
)

// Event is a message passed through the event bus.
type Event struct {
	Topic     Topic
	Payload   any
	Timestamp time.Time
}

// Handler processes an event.
type Handler func(Event)
