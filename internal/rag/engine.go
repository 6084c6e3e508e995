package rag

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"fincopilot/pkg/errors"
	"fincopilot/pkg/logger"
)

// Engine retrieves knowledge relevant to a question. Results are advisory:
// callers treat retrieval failures as "no extra context".
type Engine interface {
	Query(ctx context.Context, question string) (string, error)
	Index(ctx context.Context, source, symbol, content string) error
}

// Compile-time check
var _ Engine = (*VectorEngine)(nil)

// VectorEngine answers queries by embedding the question and pulling the
// closest stored documents.
type VectorEngine struct {
	embedder Embedder
	store    DocumentStore
	topK     int
	log      *logger.Logger
}

// NewVectorEngine creates a retrieval engine over a document store
func NewVectorEngine(embedder Embedder, store DocumentStore, topK int) *VectorEngine {
	if topK <= 0 {
		topK = 3
	}
	return &VectorEngine{
		embedder: embedder,
		store:    store,
		topK:     topK,
		log:      logger.Get().With("component", "rag_engine"),
	}
}

// Query embeds the question and returns the concatenated closest documents
func (e *VectorEngine) Query(ctx context.Context, question string) (string, error) {
	embedding, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return "", errors.Wrap(err, "failed to embed question")
	}

	docs, err := e.store.SearchSimilar(ctx, pgvector.NewVector(embedding), e.topK)
	if err != nil {
		return "", errors.Wrap(err, "similarity search failed")
	}

	if len(docs) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(doc.Content)
	}

	e.log.Debugf("Retrieved %d context documents for question of %d chars", len(docs), len(question))

	return sb.String(), nil
}

// Index embeds and stores a document
func (e *VectorEngine) Index(ctx context.Context, source, symbol, content string) error {
	if content == "" {
		return errors.Wrapf(errors.ErrInvalidInput, "content cannot be empty")
	}

	embedding, err := e.embedder.Embed(ctx, content)
	if err != nil {
		return errors.Wrap(err, "failed to embed document")
	}

	doc := &Document{
		ID:        uuid.New(),
		Source:    source,
		Content:   content,
		Embedding: pgvector.NewVector(embedding),
		CreatedAt: time.Now().UTC(),
	}
	if symbol != "" {
		doc.Symbol = &symbol
	}

	return e.store.Store(ctx, doc)
}
