package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"fincopilot/internal/adapters/ai"
	"fincopilot/internal/adapters/news"
	"fincopilot/internal/domain/analysis"
	"fincopilot/pkg/errors"
)

// Keyword lexicons for headline sentiment scoring.
var (
	positiveWords = []string{"surge", "gain", "rise", "up", "growth", "profit", "beat", "strong", "bullish"}
	negativeWords = []string{"fall", "drop", "decline", "down", "loss", "miss", "weak", "bearish", "crash"}
)

const (
	maxNewsSymbols    = 10
	articlesPerSymbol = 3
	maxRecentNews     = 10
)

// Compile-time check
var _ Agent = (*NewsAgent)(nil)

// NewsAgent fetches and scores financial news for symbols and portfolios.
type NewsAgent struct {
	baseAgent
	provider news.Provider
}

// NewNewsAgent creates the news analysis agent
func NewNewsAgent(reasoner ai.Reasoner, provider news.Provider, memoryLimit, memoryKeep int) *NewsAgent {
	return &NewsAgent{
		baseAgent: newBaseAgent(
			"NewsAnalysisAgent",
			"Monitors financial news and scores headline sentiment.",
			reasoner, memoryLimit, memoryKeep,
		),
		provider: provider,
	}
}

// Execute dispatches a task to the matching operation
func (a *NewsAgent) Execute(ctx context.Context, task Task) (*Result, error) {
	switch task.Type {
	case TaskFetchNews:
		out, err := a.FetchNews(ctx, task.Symbol, task.Limit)
		if err != nil {
			return nil, err
		}
		return &Result{Type: task.Type, Data: out}, nil
	case TaskPortfolioNews:
		out, err := a.PortfolioNews(ctx, task.Symbols)
		if err != nil {
			return nil, err
		}
		return &Result{Type: task.Type, Data: out}, nil
	default:
		return nil, errors.Wrapf(errors.ErrUnknownTaskType, "news agent: %s", task.Type)
	}
}

// FetchNews returns scored articles for one symbol
func (a *NewsAgent) FetchNews(ctx context.Context, symbol string, limit int) ([]analysis.NewsItem, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if limit <= 0 {
		limit = 10
	}

	articles, err := a.provider.GetArticles(ctx, symbol, limit)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "news for %s: %v", symbol, err)
	}

	items := make([]analysis.NewsItem, 0, len(articles))
	for _, art := range articles {
		items = append(items, scoreArticle(art, symbol))
	}
	return items, nil
}

// PortfolioNews gathers recent articles across the portfolio's symbols
// (first ten, three articles each), merges them newest first and grades the
// overall sentiment
func (a *NewsAgent) PortfolioNews(ctx context.Context, symbols []string) (*analysis.NewsSummary, error) {
	if len(symbols) > maxNewsSymbols {
		symbols = symbols[:maxNewsSymbols]
	}

	bySymbol := make(map[string][]analysis.NewsItem, len(symbols))
	var merged []analysis.NewsItem

	for _, symbol := range symbols {
		items, err := a.FetchNews(ctx, symbol, articlesPerSymbol)
		if err != nil {
			a.log.Warnf("News fetch failed for %s: %v", symbol, err)
			bySymbol[symbol] = []analysis.NewsItem{}
			continue
		}
		bySymbol[symbol] = items
		merged = append(merged, items...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})

	overall := aggregateSentiment(merged)

	// Only the ten freshest articles feed the summary and the response.
	recent := merged
	if len(recent) > maxRecentNews {
		recent = recent[:maxRecentNews]
	}

	summary := "No recent news for your portfolio holdings."
	if len(recent) > 0 {
		var sb strings.Builder
		for _, item := range recent {
			fmt.Fprintf(&sb, "- [%s] %s (%s)\n", strings.ToUpper(string(item.Sentiment)), item.Title, item.Source)
		}
		summary = a.Reason(ctx,
			"Summarize what this news flow means for the portfolio. Highlight anything that needs attention.",
			sb.String(),
		)
	}

	return &analysis.NewsSummary{
		Symbols:          symbols,
		NewsBySymbol:     bySymbol,
		RecentNews:       recent,
		Summary:          summary,
		OverallSentiment: overall,
		GeneratedAt:      time.Now().UTC(),
	}, nil
}

// scoreArticle grades one article by keyword balance. Relevance grows with
// keyword density, floored at 0.3 so unmatched articles still rank.
func scoreArticle(art news.Article, symbol string) analysis.NewsItem {
	text := strings.ToLower(art.Title + " " + art.Summary)

	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			neg++
		}
	}

	sentiment := analysis.SentimentNeutral
	if pos > neg+1 {
		sentiment = analysis.SentimentPositive
	} else if neg > pos+1 {
		sentiment = analysis.SentimentNegative
	}

	relevance := float64(pos+neg) / 5
	if relevance > 1 {
		relevance = 1
	}
	if relevance < 0.3 {
		relevance = 0.3
	}

	var related []string
	if symbol != "" {
		related = []string{symbol}
	}

	return analysis.NewsItem{
		Title:          art.Title,
		Source:         art.Source,
		URL:            art.URL,
		PublishedAt:    art.PublishedAt,
		Summary:        art.Summary,
		Sentiment:      sentiment,
		RelevanceScore: relevance,
		RelatedSymbols: related,
	}
}

// aggregateSentiment grades a set of scored articles. Strong majorities
// (over 60 percent) read bullish or bearish; a plain majority only slightly
// so.
func aggregateSentiment(items []analysis.NewsItem) analysis.AggregateSentiment {
	if len(items) == 0 {
		return analysis.AggregateNeutral
	}

	var pos, neg int
	for _, item := range items {
		switch item.Sentiment {
		case analysis.SentimentPositive:
			pos++
		case analysis.SentimentNegative:
			neg++
		}
	}

	total := float64(len(items))
	switch {
	case float64(pos)/total > 0.6:
		return analysis.AggregateBullish
	case float64(neg)/total > 0.6:
		return analysis.AggregateBearish
	case pos > neg:
		return analysis.AggregateSlightlyBullish
	case neg > pos:
		return analysis.AggregateSlightlyBearish
	default:
		return analysis.AggregateNeutral
	}
}
