package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// classify maps an SDK error onto an LLMError. statusCode is the HTTP status
// the SDK reported, or 0 when the request never got a response.
func classify(err error, statusCode int) *LLMError {
	llmErr := &LLMError{Err: err, Message: "llm request failed", StatusCode: statusCode}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		llmErr.Type = ErrorAuth
	case statusCode == http.StatusTooManyRequests:
		llmErr.Type = ErrorRateLimit
	case statusCode >= 500:
		llmErr.Type = ErrorServerError
	case statusCode >= 400:
		llmErr.Type = ErrorInvalidInput
	case errors.Is(err, context.DeadlineExceeded):
		llmErr.Type = ErrorTimeout
	default:
		llmErr.Type = classifyTransportError(err)
	}
	return llmErr
}

func classifyTransportError(err error) ErrorType {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTimeout
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return ErrorNetwork
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return ErrorTimeout
	case strings.Contains(lower, "connection") || strings.Contains(lower, "refused"):
		return ErrorNetwork
	default:
		return ErrorUnknown
	}
}
