// Package transport implements chat.Transport against the assistant API.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gc-portfolio/internal/chat"
	"gc-portfolio/internal/config"
)

// ErrMalformedResponse is returned when the reply body has no string
// "response" field.
var ErrMalformedResponse = errors.New("malformed assistant response")

// StatusError reports a non-2xx answer from the assistant endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("assistant returned status %d", e.Code)
	}
	return fmt.Sprintf("assistant returned status %d: %s", e.Code, e.Body)
}

// decodeReply extracts the "response" string from a reply body.
func decodeReply(body []byte) (string, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	raw, ok := payload["response"]
	if !ok {
		return "", fmt.Errorf("%w: missing response field", ErrMalformedResponse)
	}
	var reply *string
	if err := json.Unmarshal(raw, &reply); err != nil || reply == nil {
		return "", fmt.Errorf("%w: response is not a string", ErrMalformedResponse)
	}
	return *reply, nil
}

// New builds the transport selected by cfg.Transport. The returned closer
// releases any held connection.
func New(cfg config.ChatConfig) (chat.Transport, func() error, error) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	switch cfg.Transport {
	case "", "http":
		return NewHTTPTransport(cfg.Endpoint, WithTimeout(timeout)), func() error { return nil }, nil
	case "ws":
		ws := NewWSTransport(cfg.Endpoint)
		return ws, ws.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown chat transport: %s", cfg.Transport)
	}
}
