package linq

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimiter is an optional client-side token bucket. The Linq API does
// not publish a fixed quota, so it stays disabled unless WithRateLimit is
// used; a nil *rateLimiter never blocks.
type rateLimiter struct {
	limiter *rate.Limiter
}

// newRateLimiter allows limit requests per second with the given burst.
func newRateLimiter(limit rate.Limit, burst int) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a token is available or the context is done.
func (rl *rateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	if err := rl.limiter.Wait(ctx); err != nil {
		return &RateLimitError{Err: err}
	}
	return nil
}
