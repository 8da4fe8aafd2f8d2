package llm

import (
	"context"
	"fmt"
)

// Provider answers one assistant turn. The assistant holds a single
// Provider, which may be a FallbackProvider chaining several backends.
type Provider interface {
	Chat(ctx context.Context, req *ChatRequest) (*LLMResponse, error)

	// Name identifies the backend in logs, e.g. "anthropic" or "openai+fallback".
	Name() string

	// DefaultModel is the model used when a request names none.
	DefaultModel() string
}

// LLMError is a classified backend failure. Its Type decides whether a
// FallbackProvider moves on to the next backend.
type LLMError struct {
	Type       ErrorType
	StatusCode int // 0 when no HTTP response arrived
	Message    string
	Err        error
}

func (e *LLMError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *LLMError) Unwrap() error {
	return e.Err
}
