// Package escalation answers questions the knowledge base could not answer confidently.
// It defines a provider-agnostic LLM interface with an OpenAI-compatible implementation
// and a deterministic mock, builds the domain-locked system instruction and tags the
// model's reply as either a generated answer or the fallback phrase.
package escalation

import (
	"context"
	"errors"

	"github.com/samber/mo"
)

var (
	ErrLLMFailed     = errors.New("LLM request failed")
	ErrInvalidConfig = errors.New("invalid LLM configuration")
)

// LLM defines the interface for interacting with chat completion models.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Complete sends a system instruction and the user's text to the model.
	// It returns the trimmed text of the first choice, or None when the provider
	// answered without usable text. Transport and API failures are errors.
	Complete(ctx context.Context, system, user string) (mo.Option[string], error)
}

// LLMConfig holds common configuration options for LLM providers.
type LLMConfig struct {
	// Model specifies the model identifier (e.g., "google/gemini-2.0-flash-001")
	Model string

	// BaseURL points the client at an OpenAI-compatible API (OpenRouter by default)
	BaseURL string

	// Temperature controls randomness; kept low so answers stay on-policy
	Temperature float64

	// MaxTokens limits the response length (0 = use provider default)
	MaxTokens int

	// APIKey is the authentication key for the provider
	APIKey string
}

// DefaultLLMConfig returns the defaults used for escalated answers.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:       "google/gemini-2.0-flash-001",
		BaseURL:     "https://openrouter.ai/api/v1",
		Temperature: 0.1,
		MaxTokens:   512,
	}
}
