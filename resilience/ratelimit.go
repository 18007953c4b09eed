package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures RateLimiter.
type RateLimiterConfig struct {
	// Rate is the sustained calls per second.
	// Default: 10
	Rate float64

	// Burst is how many calls may go out back to back.
	// Default: 10
	Burst int

	// WaitOnLimit makes Execute wait for a token instead of failing.
	WaitOnLimit bool

	// MaxWait bounds that wait. A token further away than MaxWait fails
	// at once with ErrRateLimitExceeded.
	// Default: 1s
	MaxWait time.Duration
}

// RateLimiter paces calls locally so bursts are spread out before they
// reach GitHub's own quota.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: ErrRateLimitExceeded when no token is available in time; the
//   context's error when it ends while waiting.
type RateLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu  sync.RWMutex
	lim *rate.Limiter

	allowed   atomic.Int64
	throttled atomic.Int64
}

// NewRateLimiter creates a RateLimiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 10
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	if config.MaxWait <= 0 {
		config.MaxWait = time.Second
	}
	rl := &RateLimiter{config: config, now: time.Now}
	rl.Reset()
	return rl
}

func (rl *RateLimiter) limiter() *rate.Limiter {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.lim
}

// Allow takes a token if one is available now.
func (rl *RateLimiter) Allow() bool {
	if rl.limiter().AllowN(rl.now(), 1) {
		rl.allowed.Add(1)
		return true
	}
	return false
}

// Wait takes a token, sleeping until it is due.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := rl.now()
	r := rl.limiter().ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if !r.OK() || delay > rl.config.MaxWait {
		r.CancelAt(now)
		rl.throttled.Add(1)
		return ErrRateLimitExceeded
	}
	if err := sleep(ctx, delay); err != nil {
		r.Cancel()
		return err
	}
	rl.allowed.Add(1)
	return nil
}

// Execute runs op once a token is taken.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if rl.config.WaitOnLimit {
		if err := rl.Wait(ctx); err != nil {
			return err
		}
		return op(ctx)
	}
	if !rl.Allow() {
		rl.throttled.Add(1)
		return ErrRateLimitExceeded
	}
	return op(ctx)
}

// Reset refills the bucket.
func (rl *RateLimiter) Reset() {
	lim := rate.NewLimiter(rate.Limit(rl.config.Rate), rl.config.Burst)
	rl.mu.Lock()
	rl.lim = lim
	rl.mu.Unlock()
}

// Metrics returns the tokens available now and call counters.
func (rl *RateLimiter) Metrics() RateLimiterMetrics {
	return RateLimiterMetrics{
		Tokens:    rl.limiter().TokensAt(rl.now()),
		Allowed:   rl.allowed.Load(),
		Throttled: rl.throttled.Load(),
	}
}

// RateLimiterMetrics describes a RateLimiter.
type RateLimiterMetrics struct {
	Tokens    float64 `json:"tokens"`
	Allowed   int64   `json:"allowed"`
	Throttled int64   `json:"throttled"`
}
