// Package agent asks a language model for minimal edit proposals. The
// model's output is untrusted input: every proposed edit goes through
// the guardrail engine before it can reach a reviewer, regardless of
// what the prompt demanded.
package agent

import (
	"context"
	"fmt"

	"github.com/ppiankov/wikimend/internal/model"
)

// Provider defines the interface for LLM backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a system + user prompt pair and returns the raw
	// completion text
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// NewProvider creates a provider from the agent configuration
func NewProvider(cfg model.AgentConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "anthropic", "claude":
		return NewAnthropicProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown agent provider: %s (supported: openai, anthropic, ollama)", cfg.Provider)
	}
}
