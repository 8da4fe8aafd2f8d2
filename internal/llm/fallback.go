package llm

import (
	"context"
	"errors"
	"log"
)

// FallbackProvider asks each backend in turn until one answers. Auth and
// input errors stop the chain.
type FallbackProvider struct {
	chain []Provider
}

// NewFallbackProvider chains providers, primary first.
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	return &FallbackProvider{chain: providers}
}

func (f *FallbackProvider) Name() string {
	if len(f.chain) == 0 {
		return "fallback"
	}
	return f.chain[0].Name() + "+fallback"
}

func (f *FallbackProvider) DefaultModel() string {
	if len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].DefaultModel()
}

// Chat returns the first answer, or the last backend's error.
func (f *FallbackProvider) Chat(ctx context.Context, req *ChatRequest) (*LLMResponse, error) {
	if len(f.chain) == 0 {
		return nil, &LLMError{Type: ErrorUnknown, Message: "no providers configured"}
	}
	var err error
	for i, p := range f.chain {
		var resp *LLMResponse
		if resp, err = p.Chat(ctx, req); err == nil {
			return resp, nil
		}
		if !shouldFallBack(err) || ctx.Err() != nil {
			return nil, err
		}
		if i+1 < len(f.chain) {
			log.Printf("[llm] %s could not answer (%v), asking %s", p.Name(), err, f.chain[i+1].Name())
		}
	}
	return nil, err
}

// shouldFallBack reports whether another backend might answer where this one
// failed. Unclassified errors count as transient.
func shouldFallBack(err error) bool {
	var llmErr *LLMError
	if !errors.As(err, &llmErr) {
		return true
	}
	return llmErr.Type != ErrorAuth && llmErr.Type != ErrorInvalidInput
}
