package rag

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
)

// Document is a stored knowledge fragment with its embedding.
type Document struct {
	ID         uuid.UUID       `db:"id"`
	Source     string          `db:"source"`
	Symbol     *string         `db:"symbol"`
	Content    string          `db:"content"`
	Embedding  pgvector.Vector `db:"embedding"`
	CreatedAt  time.Time       `db:"created_at"`
	Similarity float64         `db:"similarity"`
}

// DocumentStore persists and searches documents by vector similarity.
type DocumentStore interface {
	Store(ctx context.Context, doc *Document) error
	SearchSimilar(ctx context.Context, embedding pgvector.Vector, limit int) ([]*Document, error)
}

// Compile-time check
var _ DocumentStore = (*PostgresStore)(nil)

// PostgresStore implements DocumentStore using sqlx and pgvector
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new document store
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Store inserts a new document
func (s *PostgresStore) Store(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO documents (
			id, source, symbol, content, embedding, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)`

	_, err := s.db.ExecContext(ctx, query,
		doc.ID, doc.Source, doc.Symbol, doc.Content, doc.Embedding, doc.CreatedAt,
	)

	return err
}

// SearchSimilar performs semantic search using pgvector cosine similarity
func (s *PostgresStore) SearchSimilar(ctx context.Context, embedding pgvector.Vector, limit int) ([]*Document, error) {
	var docs []*Document

	query := `
		SELECT *, 1 - (embedding <=> $1) as similarity
		FROM documents
		ORDER BY embedding <=> $1
		LIMIT $2`

	err := s.db.SelectContext(ctx, &docs, query, embedding, limit)
	if err != nil {
		return nil, err
	}

	return docs, nil
}
