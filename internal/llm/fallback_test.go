package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

type stubProvider struct {
	name  string
	resp  *LLMResponse
	err   error
	calls int
}

func (s *stubProvider) Chat(context.Context, *ChatRequest) (*LLMResponse, error) {
	s.calls++
	return s.resp, s.err
}

func (s *stubProvider) Name() string         { return s.name }
func (s *stubProvider) DefaultModel() string { return s.name + "-model" }

func TestFallbackOnRetryableError(t *testing.T) {
	primary := &stubProvider{name: "a", err: &LLMError{Type: ErrorRateLimit, Message: "slow down"}}
	secondary := &stubProvider{name: "b", resp: &LLMResponse{Content: "hello"}}

	f := NewFallbackProvider(primary, secondary)
	resp, err := f.Chat(context.Background(), &ChatRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "hello" {
		t.Fatalf("expected hello, got %s", resp.Content)
	}
	if secondary.calls != 1 {
		t.Fatalf("expected secondary to be called once, got %d", secondary.calls)
	}
}

func TestNoFallbackOnAuthError(t *testing.T) {
	primary := &stubProvider{name: "a", err: &LLMError{Type: ErrorAuth, Message: "bad key"}}
	secondary := &stubProvider{name: "b", resp: &LLMResponse{Content: "hello"}}

	f := NewFallbackProvider(primary, secondary)
	_, err := f.Chat(context.Background(), &ChatRequest{})

	var llmErr *LLMError
	if !errors.As(err, &llmErr) || llmErr.Type != ErrorAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
	if secondary.calls != 0 {
		t.Fatal("secondary should not be called after an auth error")
	}
}

func TestFallbackReturnsLastError(t *testing.T) {
	last := errors.New("boom")
	f := NewFallbackProvider(
		&stubProvider{name: "a", err: &LLMError{Type: ErrorServerError, Message: "500"}},
		&stubProvider{name: "b", err: last},
	)
	if _, err := f.Chat(context.Background(), &ChatRequest{}); !errors.Is(err, last) {
		t.Fatalf("expected last error, got %v", err)
	}
}

func TestFallbackEmpty(t *testing.T) {
	f := NewFallbackProvider()
	if _, err := f.Chat(context.Background(), &ChatRequest{}); err == nil {
		t.Fatal("expected error with no providers")
	}
	if f.Name() != "fallback" {
		t.Fatalf("unexpected name %s", f.Name())
	}
}

func TestFallbackName(t *testing.T) {
	f := NewFallbackProvider(&stubProvider{name: "openai"}, &stubProvider{name: "anthropic"})
	if f.Name() != "openai+fallback" {
		t.Fatalf("unexpected name %s", f.Name())
	}
	if f.DefaultModel() != "openai-model" {
		t.Fatalf("unexpected model %s", f.DefaultModel())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   ErrorType
	}{
		{"unauthorized", errors.New("x"), http.StatusUnauthorized, ErrorAuth},
		{"forbidden", errors.New("x"), http.StatusForbidden, ErrorAuth},
		{"rate limit", errors.New("x"), http.StatusTooManyRequests, ErrorRateLimit},
		{"bad request", errors.New("x"), http.StatusBadRequest, ErrorInvalidInput},
		{"server", errors.New("x"), http.StatusBadGateway, ErrorServerError},
		{"deadline", context.DeadlineExceeded, 0, ErrorTimeout},
		{"refused", errors.New("dial tcp: connection refused"), 0, ErrorNetwork},
		{"other", errors.New("weird"), 0, ErrorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err, tt.status)
			if got.Type != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got.Type)
			}
			if !errors.Is(got, tt.err) {
				t.Fatal("classified error should unwrap to the cause")
			}
		})
	}
}

func TestNewFromConfigWithoutKey(t *testing.T) {
	p, err := NewFromConfig(configWithoutKey(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if p != nil {
		t.Fatalf("expected no provider, got %s", p.Name())
	}
}
