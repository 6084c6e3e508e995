package rag

import (
	"context"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincopilot/pkg/errors"
)

type stubEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.texts = append(s.texts, text)
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

type stubStore struct {
	docs      []*Document
	searchErr error
	stored    []*Document
	lastLimit int
}

func (s *stubStore) Store(ctx context.Context, doc *Document) error {
	s.stored = append(s.stored, doc)
	return nil
}

func (s *stubStore) SearchSimilar(ctx context.Context, embedding pgvector.Vector, limit int) ([]*Document, error) {
	s.lastLimit = limit
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.docs, nil
}

func TestVectorEngine_Query(t *testing.T) {
	store := &stubStore{docs: []*Document{
		{Content: "Apple reported record revenue."},
		{Content: "Rate cuts lifted growth stocks."},
	}}
	engine := NewVectorEngine(&stubEmbedder{vector: []float32{0.1, 0.2}}, store, 2)

	got, err := engine.Query(context.Background(), "how is AAPL doing?")
	require.NoError(t, err)
	assert.Equal(t, "Apple reported record revenue.\n\nRate cuts lifted growth stocks.", got)
	assert.Equal(t, 2, store.lastLimit)
}

func TestVectorEngine_QueryNoResults(t *testing.T) {
	engine := NewVectorEngine(&stubEmbedder{vector: []float32{0.1}}, &stubStore{}, 3)

	got, err := engine.Query(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVectorEngine_QueryEmbedFailure(t *testing.T) {
	engine := NewVectorEngine(&stubEmbedder{err: errors.ErrProviderUnavailable}, &stubStore{}, 3)

	_, err := engine.Query(context.Background(), "anything")
	assert.ErrorIs(t, err, errors.ErrProviderUnavailable)
}

func TestVectorEngine_TopKDefault(t *testing.T) {
	store := &stubStore{}
	engine := NewVectorEngine(&stubEmbedder{vector: []float32{0.1}}, store, 0)

	_, err := engine.Query(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, 3, store.lastLimit)
}

func TestVectorEngine_Index(t *testing.T) {
	store := &stubStore{}
	embedder := &stubEmbedder{vector: []float32{0.5, 0.6}}
	engine := NewVectorEngine(embedder, store, 3)

	err := engine.Index(context.Background(), "news", "AAPL", "Apple launches new product.")
	require.NoError(t, err)
	require.Len(t, store.stored, 1)

	doc := store.stored[0]
	assert.Equal(t, "news", doc.Source)
	require.NotNil(t, doc.Symbol)
	assert.Equal(t, "AAPL", *doc.Symbol)
	assert.Equal(t, "Apple launches new product.", doc.Content)
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestVectorEngine_IndexEmptyContent(t *testing.T) {
	engine := NewVectorEngine(&stubEmbedder{vector: []float32{0.1}}, &stubStore{}, 3)

	err := engine.Index(context.Background(), "news", "", "")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
