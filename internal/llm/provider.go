package llm

import (
	"context"
	"time"
)

// Provider is the outbound contract to a text-completion service.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Generate sends a user prompt plus an optional system prompt and
	// returns the raw completion text. Exhausted retries surface as
	// ErrModelUnavailable; the caller decides how to degrade.
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// Config holds provider settings resolved once at startup.
type Config struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Defaults mirrors the provider settings the service ships with.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Model == "" {
		c.Model = "llama-3.3-70b-versatile"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1000
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
}
