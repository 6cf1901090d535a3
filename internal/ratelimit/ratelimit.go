package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type RateLimiter interface {
	Wait(ctx context.Context) error
	SetDelay(min, max time.Duration)
}

// NavigationLimiter spaces page navigations against one site: a token bucket
// bounds the sustained rate and a random jitter in [minDelay, maxDelay) is
// added on top.
type NavigationLimiter struct {
	bucket   *rate.Limiter
	minDelay time.Duration
	maxDelay time.Duration
	mu       sync.Mutex
}

// NewNavigationLimiter returns nil when rps <= 0 and no delay is set, which
// the browser pool treats as "never wait".
func NewNavigationLimiter(rps float64, burst int, minDelay, maxDelay time.Duration) *NavigationLimiter {
	if rps <= 0 && minDelay <= 0 && maxDelay <= 0 {
		return nil
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &NavigationLimiter{
		bucket:   rate.NewLimiter(limit, burst),
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

func (n *NavigationLimiter) Wait(ctx context.Context) error {
	if n == nil {
		return nil
	}
	if err := n.bucket.Wait(ctx); err != nil {
		return err
	}

	delay := n.calculateDelay()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (n *NavigationLimiter) SetDelay(min, max time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.minDelay = min
	n.maxDelay = max
}

func (n *NavigationLimiter) calculateDelay() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.maxDelay <= n.minDelay {
		return n.minDelay
	}

	delta := n.maxDelay - n.minDelay
	return n.minDelay + time.Duration(rand.Int63n(int64(delta)))
}
