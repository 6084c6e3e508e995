package ai

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"fincopilot/pkg/errors"
	"fincopilot/pkg/logger"
)

// OpenAIReasoner implements Reasoner using the official OpenAI Go SDK.
type OpenAIReasoner struct {
	client  openai.Client
	model   openai.ChatModel
	timeout time.Duration
	limiter *RateLimiter
	log     *logger.Logger
}

// NewOpenAIReasoner creates an OpenAI-backed reasoner.
func NewOpenAIReasoner(apiKey, model string, timeout time.Duration, limiter *RateLimiter) (*OpenAIReasoner, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openai API key is required")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	if timeout == 0 {
		timeout = 45 * time.Second
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIReasoner{
		client:  client,
		model:   openai.ChatModel(model),
		timeout: timeout,
		limiter: limiter,
		log:     logger.Get().With("component", "openai_reasoner", "model", model),
	}, nil
}

var _ Reasoner = (*OpenAIReasoner)(nil)

// Name returns the backend name.
func (r *OpenAIReasoner) Name() string { return "openai" }

// Generate sends a single-shot completion request.
func (r *OpenAIReasoner) Generate(ctx context.Context, prompt string) (string, error) {
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

	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: r.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrReasoningFailed, err.Error())
	}

	if len(resp.Choices) == 0 {
		return "", errors.Wrap(errors.ErrReasoningFailed, "no choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}
