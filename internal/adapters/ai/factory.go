package ai

import (
	"context"

	"fincopilot/internal/adapters/config"
	"fincopilot/pkg/errors"
)

// NewReasoner builds the reasoning backend selected by configuration.
func NewReasoner(ctx context.Context, cfg config.AIConfig) (Reasoner, error) {
	limiter := NewRateLimiter(cfg.RequestsPerMin)

	switch cfg.DefaultProvider {
	case "openai", "":
		return NewOpenAIReasoner(cfg.OpenAIKey, cfg.Model, cfg.Timeout, limiter)
	case "gemini":
		return NewGeminiReasoner(ctx, cfg.GeminiKey, cfg.Model, cfg.Timeout, limiter)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown AI provider %q", cfg.DefaultProvider)
	}
}
