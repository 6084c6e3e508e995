package news

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fincopilot/pkg/logger"
)

// CachedProvider caches article lists in Redis, keyed by symbol. Cache
// failures fall back to the underlying provider.
type CachedProvider struct {
	next   Provider
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewCachedProvider wraps a news provider with Redis caching.
func NewCachedProvider(next Provider, client *redis.Client, ttl time.Duration) *CachedProvider {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProvider{
		next:   next,
		client: client,
		ttl:    ttl,
		log:    logger.Get().With("component", "news_cache"),
	}
}

var _ Provider = (*CachedProvider)(nil)

// GetArticles returns cached articles when fresh, otherwise fetches.
func (c *CachedProvider) GetArticles(ctx context.Context, symbol string, limit int) ([]Article, error) {
	key := fmt.Sprintf("news:%s", strings.ToUpper(symbol))
	if symbol == "" {
		key = "news:general"
	}

	if c.client != nil {
		if data, err := c.client.Get(ctx, key).Result(); err == nil {
			var cached []Article
			if err := json.Unmarshal([]byte(data), &cached); err == nil {
				if len(cached) > limit && limit > 0 {
					cached = cached[:limit]
				}
				return cached, nil
			}
		}
	}

	articles, err := c.next.GetArticles(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}

	if c.client != nil {
		if data, err := json.Marshal(articles); err == nil {
			if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
				c.log.Debugf("cache write failed for %s: %v", key, err)
			}
		}
	}

	return articles, nil
}
