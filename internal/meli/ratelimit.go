package meli

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/donaldgifford/meli-client/internal/metrics"
)

const quotaWindow = 24 * time.Hour

// RateLimiter throttles outbound calls with a token bucket and enforces a
// rolling 24-hour quota. A zero daily limit disables the quota.
type RateLimiter struct {
	limiter     *rate.Limiter
	used        atomic.Int64
	maxDaily    int64
	windowStart time.Time
	resetAt     time.Time
	mu          sync.Mutex
	nowFunc     func() time.Time
}

// RateLimiterOption configures the RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterNowFunc overrides the time function for testing.
func WithRateLimiterNowFunc(f func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) {
		r.nowFunc = f
	}
}

// NewRateLimiter creates a limiter allowing perSecond calls with the given
// burst and at most maxDaily calls per window. The window starts now and
// restarts 24 hours later.
func NewRateLimiter(
	perSecond float64,
	burst int,
	maxDaily int64,
	opts ...RateLimiterOption,
) *RateLimiter {
	r := &RateLimiter{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		maxDaily: maxDaily,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	now := r.nowFunc()
	r.windowStart = now
	r.resetAt = now.Add(quotaWindow)
	return r
}

// Wait blocks until a call is allowed or ctx is done. It returns an error
// matching ErrRateLimited once the daily quota is used up.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.rollWindow()

	if r.maxDaily > 0 && r.used.Load() >= r.maxDaily {
		metrics.DailyLimitHits.Inc()
		return fmt.Errorf("%w: daily quota used (%d/%d)", ErrRateLimited, r.used.Load(), r.maxDaily)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	metrics.DailyUsage.Set(float64(r.used.Add(1)))
	return nil
}

// Used returns the number of calls made in the current window.
func (r *RateLimiter) Used() int64 {
	return r.used.Load()
}

// Remaining returns the calls left in the current window, or -1 when the
// quota is disabled.
func (r *RateLimiter) Remaining() int64 {
	if r.maxDaily <= 0 {
		return -1
	}
	remaining := r.maxDaily - r.used.Load()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetAt returns when the current window ends.
func (r *RateLimiter) ResetAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetAt
}

func (r *RateLimiter) rollWindow() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()
	if now.After(r.resetAt) {
		r.used.Store(0)
		r.windowStart = now
		r.resetAt = now.Add(quotaWindow)
	}
}
