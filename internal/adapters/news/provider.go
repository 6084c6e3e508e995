package news

import (
	"context"
	"time"
)

// Article is one raw news article before sentiment scoring.
type Article struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Summary     string    `json:"summary"`
}

// Provider supplies recent financial news. Callers convert any error into
// empty results; a news failure never fails an analysis.
type Provider interface {
	GetArticles(ctx context.Context, symbol string, limit int) ([]Article, error)
}
