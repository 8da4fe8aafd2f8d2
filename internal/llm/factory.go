package llm

import (
	"fmt"
	"time"

	"gc-portfolio/internal/config"
)

// NewProvider creates an LLM provider from config.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	switch cfg.Provider {
	case "openai", "openrouter", "local":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			MaxRetries: cfg.MaxRetries,
			Timeout:    timeout,
		}), nil
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			MaxRetries: cfg.MaxRetries,
			Timeout:    timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}

// NewFromConfig builds the primary provider, chained with the fallback
// provider when one is configured. It returns nil, nil when the primary has
// no API key and is not a local endpoint, so callers can run without an LLM.
func NewFromConfig(primary config.LLMConfig, fallback *config.LLMConfig) (Provider, error) {
	if primary.APIKey == "" && primary.Provider != "local" {
		return nil, nil
	}
	p, err := NewProvider(primary)
	if err != nil {
		return nil, err
	}
	if fallback == nil {
		return p, nil
	}
	fb, err := NewProvider(*fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback provider: %w", err)
	}
	return NewFallbackProvider(p, fb), nil
}
