package node

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per node endpoint so a burst of UTXO
// chunk requests cannot starve submission or fee-rate calls.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter allowing perSecond requests with the
// given burst per endpoint. A non-positive rate disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	r := &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   max(burst, 1),
		buckets: make(map[string]*rate.Limiter),
	}
	if perSecond <= 0 {
		r.limit = rate.Inf
	}
	return r
}

// Wait blocks until a request to endpoint is allowed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, endpoint string) error {
	return r.bucket(endpoint).Wait(ctx)
}

func (r *RateLimiter) bucket(endpoint string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[endpoint]
	if !ok {
		b = rate.NewLimiter(r.limit, r.burst)
		r.buckets[endpoint] = b
	}
	return b
}
