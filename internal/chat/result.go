package chat

// SendResult reports how a send ended.
//
// Exactly one of these holds:
//   - Skipped: the text was blank and nothing happened.
//   - OK(): the assistant replied and Reply holds its message.
//   - FallbackShown(): the transport failed, Err holds the cause and Reply
//     holds the fallback message that was rendered.
type SendResult struct {
	Skipped bool
	Reply   Message
	Err     error
}

// OK reports whether the assistant replied.
func (r SendResult) OK() bool {
	return !r.Skipped && r.Err == nil
}

// FallbackShown reports whether the fallback message replaced a reply.
func (r SendResult) FallbackShown() bool {
	return !r.Skipped && r.Err != nil
}
