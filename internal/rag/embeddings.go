package rag

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"fincopilot/pkg/errors"
	"fincopilot/pkg/logger"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Compile-time check
var _ Embedder = (*OpenAIEmbedder)(nil)

// OpenAIEmbedder implements embedding generation using the official OpenAI Go SDK
type OpenAIEmbedder struct {
	client  openai.Client // NewClient returns Client (not *Client)
	model   openai.EmbeddingModel
	timeout time.Duration
	log     *logger.Logger
}

// NewOpenAIEmbedder creates a new OpenAI embedding provider
func NewOpenAIEmbedder(apiKey, model string, timeout time.Duration) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "openai API key is required")
	}

	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIEmbedder{
		client:  client,
		model:   openai.EmbeddingModel(model),
		timeout: timeout,
		log:     logger.Get().With("component", "openai_embedder", "model", model),
	}, nil
}

// Embed creates a vector embedding for the given text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "text cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	response, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Model: e.model,
	})
	if err != nil {
		return nil, errors.Wrap(err, "openai embeddings call failed")
	}

	if len(response.Data) == 0 {
		return nil, errors.Wrapf(errors.ErrInternal, "no embedding data returned")
	}

	// Convert []float64 to []float32 for pgvector compatibility
	embeddingData := response.Data[0].Embedding
	result := make([]float32, len(embeddingData))
	for i, val := range embeddingData {
		result[i] = float32(val)
	}

	e.log.Debug("Generated embedding",
		"text_length", len(text),
		"embedding_dims", len(result),
		"tokens_used", response.Usage.TotalTokens)

	return result, nil
}
