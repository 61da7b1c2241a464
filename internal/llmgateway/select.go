package llmgateway

import (
	"errors"

	"github.com/relaykit/conduit/internal/config"
)

// New selects and constructs a Gateway backend from cfg. Anthropic is
// preferred when both credentials are present, matching the richer native
// tool-use integration the backend already wraps.
func New(cfg config.Config) (Gateway, error) {
	switch {
	case cfg.HasAnthropic():
		keys := NewKeyCache(func() (string, error) {
			if cfg.AnthropicAPIKey == "" {
				return "", errors.New("ANTHROPIC_API_KEY not configured")
			}
			return cfg.AnthropicAPIKey, nil
		})
		return NewAnthropicBackend(keys)
	case cfg.HasOpenRouter():
		keys := NewKeyCache(func() (string, error) {
			if cfg.OpenRouterAPIKey == "" {
				return "", errors.New("OPENROUTER_API_KEY not configured")
			}
			return cfg.OpenRouterAPIKey, nil
		})
		return NewOpenRouterBackend(keys)
	default:
		return nil, errors.New("no LLM provider configured: set ANTHROPIC_API_KEY or OPENROUTER_API_KEY")
	}
}
