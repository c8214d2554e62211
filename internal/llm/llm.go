// Package llm provides language-model clients that turn a prompt string
// into raw completion text. The agent treats the returned text as
// untrusted until it passes the safety gate.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Generator produces completion text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	// Provider is the provider name: "anthropic" or "openai".
	Provider string

	// Model is the provider model identifier.
	Model string

	// Endpoint overrides the provider API URL (tests, proxies).
	Endpoint string

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string

	// MaxTokens bounds the completion length.
	MaxTokens int

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

const defaultMaxTokens = 2000

// New builds a Generator for the configured provider.
func New(cfg Config) (Generator, error) {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}

	switch cfg.Provider {
	case "", "anthropic":
		return newAnthropicClient(cfg)
	case "openai":
		return newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q (supported: anthropic, openai)", cfg.Provider)
	}
}

// APIKeyEnvName returns the environment variable consulted for the
// provider's API key.
func APIKeyEnvName(cfg Config) string {
	if cfg.APIKeyEnv != "" {
		return cfg.APIKeyEnv
	}
	switch cfg.Provider {
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return "ANTHROPIC_API_KEY"
	}
}

// resolveAPIKey reads the API key from the configured env var, falling
// back to the provider default.
func resolveAPIKey(envVar, fallback string) (string, error) {
	name := envVar
	if name == "" {
		name = fallback
	}
	key := os.Getenv(name)
	if key == "" {
		return "", fmt.Errorf("API key not set: export %s", name)
	}
	return key, nil
}
