package news

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"fincopilot/pkg/errors"
	"fincopilot/pkg/logger"
)

// Feed is one RSS source.
type Feed struct {
	Name string
	URL  string
}

// DefaultFeeds lists the financial news feeds polled by the RSS provider.
var DefaultFeeds = []Feed{
	{Name: "Yahoo Finance", URL: "https://finance.yahoo.com/news/rssindex"},
	{Name: "CNBC", URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
	{Name: "MarketWatch", URL: "http://feeds.marketwatch.com/marketwatch/topstories"},
	{Name: "Reuters Business", URL: "https://www.reutersagency.com/feed/?best-topics=business-finance&post_type=best"},
}

// RSSProvider aggregates articles from a fixed set of RSS feeds. When a
// symbol is given, articles are filtered by a headline match; feeds that
// fail to fetch are skipped.
type RSSProvider struct {
	feeds  []Feed
	client *http.Client
	log    *logger.Logger
}

// NewRSSProvider creates an RSS-backed news provider.
func NewRSSProvider(feeds []Feed, timeout time.Duration) *RSSProvider {
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &RSSProvider{
		feeds:  feeds,
		client: &http.Client{Timeout: timeout},
		log:    logger.Get().With("component", "rss_news"),
	}
}

var _ Provider = (*RSSProvider)(nil)

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// GetArticles fetches recent articles, newest first, optionally filtered
// by symbol.
func (p *RSSProvider) GetArticles(ctx context.Context, symbol string, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 10
	}
	symbol = strings.ToUpper(symbol)

	var all []Article
	var errs errors.MultiError

	for _, feed := range p.feeds {
		articles, err := p.fetchFeed(ctx, feed)
		if err != nil {
			p.log.Debugf("feed %s failed: %v", feed.Name, err)
			errs.Add(err)
			continue
		}
		all = append(all, articles...)
	}

	if len(all) == 0 && errs.HasErrors() {
		return nil, errors.Wrap(errors.ErrDataUnavailable, errs.Error())
	}

	if symbol != "" {
		all = filterBySymbol(all, symbol)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (p *RSSProvider) fetchFeed(ctx context.Context, feed Feed) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "%s: %v", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "%s: status %d", feed.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read feed")
	}

	var doc rssDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse feed %s", feed.Name)
	}

	articles := make([]Article, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		articles = append(articles, Article{
			Title:       strings.TrimSpace(item.Title),
			Source:      feed.Name,
			URL:         item.Link,
			PublishedAt: parsePubDate(item.PubDate),
			Summary:     strings.TrimSpace(item.Description),
		})
	}
	return articles, nil
}

func filterBySymbol(articles []Article, symbol string) []Article {
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		text := strings.ToUpper(a.Title + " " + a.Summary)
		if strings.Contains(text, symbol) {
			out = append(out, a)
		}
	}
	return out
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

func parsePubDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}
