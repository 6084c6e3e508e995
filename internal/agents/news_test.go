package agents

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincopilot/internal/adapters/news"
	"fincopilot/internal/domain/analysis"
	"fincopilot/pkg/errors"
)

func newTestNewsAgent(reasoner *stubReasoner, provider news.Provider) *NewsAgent {
	return NewNewsAgent(reasoner, provider, 100, 50)
}

func TestScoreArticle_SentimentMargin(t *testing.T) {
	cases := []struct {
		title string
		want  analysis.Sentiment
	}{
		// Two positive keywords over zero negative: clears the margin
		{"Shares surge on strong earnings", analysis.SentimentPositive},
		// One positive, zero negative: within the margin, stays neutral
		{"Revenue growth continues", analysis.SentimentNeutral},
		// One positive vs one negative: neutral
		{"Stock gains despite weak outlook", analysis.SentimentNeutral},
		// Two negative over zero positive
		{"Shares fall after earnings miss", analysis.SentimentNegative},
		{"Company announces new product", analysis.SentimentNeutral},
	}

	for _, tc := range cases {
		item := scoreArticle(news.Article{Title: tc.title}, "AAPL")
		assert.Equal(t, tc.want, item.Sentiment, "title: %q", tc.title)
	}
}

func TestScoreArticle_RelevanceClamped(t *testing.T) {
	// No keywords: floored at 0.3
	item := scoreArticle(news.Article{Title: "Quarterly report published"}, "AAPL")
	assert.Equal(t, 0.3, item.RelevanceScore)

	// Keyword-dense headline: capped at 1.0
	item = scoreArticle(news.Article{
		Title:   "Shares surge and gain as growth and profit beat strong bullish forecasts",
		Summary: "rise up",
	}, "AAPL")
	assert.Equal(t, 1.0, item.RelevanceScore)

	assert.Equal(t, []string{"AAPL"}, item.RelatedSymbols)
}

func TestAggregateSentiment(t *testing.T) {
	mk := func(sentiments ...analysis.Sentiment) []analysis.NewsItem {
		items := make([]analysis.NewsItem, len(sentiments))
		for i, s := range sentiments {
			items[i] = analysis.NewsItem{Sentiment: s}
		}
		return items
	}

	pos := analysis.SentimentPositive
	neg := analysis.SentimentNegative
	neu := analysis.SentimentNeutral

	assert.Equal(t, analysis.AggregateNeutral, aggregateSentiment(nil))

	// 3 of 4 positive: over 60 percent
	assert.Equal(t, analysis.AggregateBullish, aggregateSentiment(mk(pos, pos, pos, neg)))
	assert.Equal(t, analysis.AggregateBearish, aggregateSentiment(mk(neg, neg, neg, pos)))

	// 2 of 4 positive, 1 negative: plain majority only
	assert.Equal(t, analysis.AggregateSlightlyBullish, aggregateSentiment(mk(pos, pos, neg, neu)))
	assert.Equal(t, analysis.AggregateSlightlyBearish, aggregateSentiment(mk(neg, neg, pos, neu)))

	assert.Equal(t, analysis.AggregateNeutral, aggregateSentiment(mk(neu, neu, pos, neg)))
}

func TestFetchNews_ProviderError(t *testing.T) {
	agent := newTestNewsAgent(&stubReasoner{}, &stubNews{articles: map[string][]news.Article{}})

	_, err := agent.FetchNews(context.Background(), "AAPL", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDataUnavailable))
}

func TestPortfolioNews_MergesNewestFirst(t *testing.T) {
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	provider := &stubNews{articles: map[string][]news.Article{
		"AAPL": {
			{Title: "AAPL old", PublishedAt: base},
			{Title: "AAPL new", PublishedAt: base.Add(48 * time.Hour)},
		},
		"MSFT": {
			{Title: "MSFT mid", PublishedAt: base.Add(24 * time.Hour)},
		},
	}}

	agent := newTestNewsAgent(&stubReasoner{response: "calm news flow"}, provider)

	summary, err := agent.PortfolioNews(context.Background(), []string{"AAPL", "MSFT", "FAIL"})
	require.NoError(t, err)

	require.Len(t, summary.RecentNews, 3)
	assert.Equal(t, "AAPL new", summary.RecentNews[0].Title)
	assert.Equal(t, "MSFT mid", summary.RecentNews[1].Title)
	assert.Equal(t, "AAPL old", summary.RecentNews[2].Title)

	// Failed symbols keep an empty entry instead of dropping out
	assert.Empty(t, summary.NewsBySymbol["FAIL"])
	assert.Equal(t, "calm news flow", summary.Summary)
}

func TestPortfolioNews_CapsRecentArticles(t *testing.T) {
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// Four symbols with three articles each merge to twelve candidates
	articles := map[string][]news.Article{}
	symbols := []string{"AAA", "BBB", "CCC", "DDD"}
	for i, sym := range symbols {
		for j := 0; j < 3; j++ {
			articles[sym] = append(articles[sym], news.Article{
				Title:       fmt.Sprintf("%s story %d", sym, j),
				PublishedAt: base.Add(time.Duration(i*3+j) * time.Hour),
			})
		}
	}

	agent := newTestNewsAgent(&stubReasoner{response: "busy tape"}, &stubNews{articles: articles})

	summary, err := agent.PortfolioNews(context.Background(), symbols)
	require.NoError(t, err)

	assert.Len(t, summary.RecentNews, 10)
	assert.Equal(t, "DDD story 2", summary.RecentNews[0].Title)
}

func TestPortfolioNews_EmptyMerge(t *testing.T) {
	reasoner := &stubReasoner{response: "should not be asked"}
	agent := newTestNewsAgent(reasoner, &stubNews{articles: map[string][]news.Article{}})

	summary, err := agent.PortfolioNews(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)

	assert.Empty(t, summary.RecentNews)
	assert.Equal(t, "No recent news for your portfolio holdings.", summary.Summary)
	assert.Zero(t, reasoner.callCount())
}

func TestPortfolioNews_CapsSymbols(t *testing.T) {
	provider := &stubNews{articles: map[string][]news.Article{}}
	agent := newTestNewsAgent(&stubReasoner{}, provider)

	symbols := make([]string, 15)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("SYM%d", i)
	}

	summary, err := agent.PortfolioNews(context.Background(), symbols)
	require.NoError(t, err)
	assert.Len(t, summary.Symbols, 10)
	assert.Len(t, summary.NewsBySymbol, 10)
}

func TestNewsAgent_UnknownTaskType(t *testing.T) {
	agent := newTestNewsAgent(&stubReasoner{}, &stubNews{})

	_, err := agent.Execute(context.Background(), Task{Type: TaskAnalyzeStock})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownTaskType))
}
