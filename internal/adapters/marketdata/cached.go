package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fincopilot/pkg/logger"
)

// CachedProvider is a read-through Redis cache in front of another provider.
// Cache failures fall back to the underlying provider.
type CachedProvider struct {
	next           Provider
	client         *redis.Client
	priceTTL       time.Duration
	fundamentalTTL time.Duration
	log            *logger.Logger
}

// NewCachedProvider wraps a provider with Redis caching.
func NewCachedProvider(next Provider, client *redis.Client, priceTTL, fundamentalTTL time.Duration) *CachedProvider {
	if priceTTL == 0 {
		priceTTL = time.Minute
	}
	if fundamentalTTL == 0 {
		fundamentalTTL = 5 * time.Minute
	}
	return &CachedProvider{
		next:           next,
		client:         client,
		priceTTL:       priceTTL,
		fundamentalTTL: fundamentalTTL,
		log:            logger.Get().With("component", "marketdata_cache"),
	}
}

var _ Provider = (*CachedProvider)(nil)

// GetPrice returns a cached quote when fresh, otherwise fetches and caches.
func (c *CachedProvider) GetPrice(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(symbol)
	key := fmt.Sprintf("md:price:%s", symbol)

	var cached Quote
	if c.getCached(ctx, key, &cached) {
		return cached, nil
	}

	quote, err := c.next.GetPrice(ctx, symbol)
	if err != nil {
		return quote, err
	}

	c.setCached(ctx, key, quote, c.priceTTL)
	return quote, nil
}

// GetFundamentals returns cached fundamentals when fresh.
func (c *CachedProvider) GetFundamentals(ctx context.Context, symbol string) (Fundamentals, error) {
	symbol = strings.ToUpper(symbol)
	key := fmt.Sprintf("md:fundamentals:%s", symbol)

	var cached Fundamentals
	if c.getCached(ctx, key, &cached) {
		return cached, nil
	}

	f, err := c.next.GetFundamentals(ctx, symbol)
	if err != nil {
		return f, err
	}

	c.setCached(ctx, key, f, c.fundamentalTTL)
	return f, nil
}

// GetHistoricalBars returns cached bars when fresh.
func (c *CachedProvider) GetHistoricalBars(ctx context.Context, symbol string, period string) ([]Bar, error) {
	symbol = strings.ToUpper(symbol)
	key := fmt.Sprintf("md:bars:%s:%s", symbol, period)

	var cached []Bar
	if c.getCached(ctx, key, &cached) {
		return cached, nil
	}

	bars, err := c.next.GetHistoricalBars(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	c.setCached(ctx, key, bars, c.fundamentalTTL)
	return bars, nil
}

// GetPeers passes through; the peer lookup is already cheap.
func (c *CachedProvider) GetPeers(ctx context.Context, symbol string) ([]string, error) {
	return c.next.GetPeers(ctx, symbol)
}

func (c *CachedProvider) getCached(ctx context.Context, key string, out interface{}) bool {
	if c.client == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Debugf("cache read failed for %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		c.log.Warnf("cache decode failed for %s: %v", key, err)
		return false
	}
	return true
}

func (c *CachedProvider) setCached(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.log.Debugf("cache write failed for %s: %v", key, err)
	}
}
