package ratelimiter

import (
	"golang.org/x/time/rate"
)

// TokenBucket implements the RateLimiter interface using the token bucket algorithm.
// It allows for bursts of requests up to the bucket's capacity.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a new TokenBucket.
// r: the number of tokens to generate per second.
// capacity: the maximum number of tokens (burst size). The bucket starts full.
func NewTokenBucket(r float64, capacity int) *TokenBucket {
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(r), capacity)}
}

// Allow consumes one token if available.
func (tb *TokenBucket) Allow() bool {
	return tb.limiter.Allow()
}
