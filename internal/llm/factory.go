package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider names a supported completion backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// ProviderConfig carries the per-provider settings used by NewClient.
// Zero-valued fields fall back to the provider defaults.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewClient builds a Client for the named provider.
func NewClient(ctx context.Context, provider Provider, config ProviderConfig) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		cfg := DefaultOpenAIConfig(config.APIKey)
		if config.Model != "" {
			cfg.Model = config.Model
		}
		if config.BaseURL != "" {
			cfg.BaseURL = config.BaseURL
		}
		if config.Timeout > 0 {
			cfg.Timeout = config.Timeout
		}
		return NewOpenAIClient(cfg)

	case ProviderAnthropic:
		if config.APIKey == "" {
			return nil, fmt.Errorf("anthropic API key is required")
		}
		cfg := DefaultAnthropicConfig(config.APIKey)
		if config.Model != "" {
			cfg.Model = config.Model
		}
		if config.BaseURL != "" {
			cfg.BaseURL = config.BaseURL
		}
		if config.Timeout > 0 {
			cfg.Timeout = config.Timeout
		}
		return NewAnthropicClient(cfg)

	case ProviderGemini:
		cfg := DefaultGeminiConfig(config.APIKey)
		if config.Model != "" {
			cfg.Model = config.Model
		}
		if config.Timeout > 0 {
			cfg.Timeout = config.Timeout
		}
		return NewGeminiClient(ctx, cfg)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", provider)
	}
}
