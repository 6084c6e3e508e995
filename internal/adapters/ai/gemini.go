package ai

import (
	"context"
	"time"

	"google.golang.org/genai"

	"fincopilot/pkg/errors"
	"fincopilot/pkg/logger"
)

// GeminiReasoner implements Reasoner using the Google GenAI SDK.
type GeminiReasoner struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	limiter *RateLimiter
	log     *logger.Logger
}

// NewGeminiReasoner creates a Gemini-backed reasoner.
func NewGeminiReasoner(ctx context.Context, apiKey, model string, timeout time.Duration, limiter *RateLimiter) (*GeminiReasoner, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout == 0 {
		timeout = 45 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}

	return &GeminiReasoner{
		client:  client,
		model:   model,
		timeout: timeout,
		limiter: limiter,
		log:     logger.Get().With("component", "gemini_reasoner", "model", model),
	}, nil
}

var _ Reasoner = (*GeminiReasoner)(nil)

// Name returns the backend name.
func (r *GeminiReasoner) Name() string { return "gemini" }

// Generate sends a single-shot generation request.
func (r *GeminiReasoner) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "prompt cannot be empty")
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", errors.Wrap(errors.ErrRateLimitExceeded, err.Error())
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.Models.GenerateContent(ctx, r.model, genai.Text(prompt), nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrReasoningFailed, err.Error())
	}

	text := resp.Text()
	if text == "" {
		return "", errors.Wrap(errors.ErrReasoningFailed, "empty response")
	}

	return text, nil
}
