package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles reasoning calls across all backends so a burst of
// concurrent agent executions stays inside the provider quota.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows requestsPerMinute calls with a small burst.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	interval := time.Minute / time.Duration(requestsPerMinute)
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Every(interval), 5),
	}
}

// Wait blocks until a call is permitted or the context is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
