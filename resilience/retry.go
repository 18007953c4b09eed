package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig configures Retry.
type RetryConfig struct {
	// MaxAttempts counts the first call.
	// Default: 2
	MaxAttempts int

	// InitialDelay is the first backoff delay.
	// Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps every delay, including ones the server asked for.
	// Default: 60s
	MaxDelay time.Duration

	// Multiplier grows the backoff delay after each retry.
	// Default: 2
	Multiplier float64

	// Jitter is the randomization factor applied to backoff delays: a delay
	// d becomes a value in [d-Jitter*d, d+Jitter*d]. Zero disables it.
	// Delays from DelayFor are never randomized.
	Jitter float64

	// RetryIf reports whether err is worth another attempt.
	// Default: any non-nil error
	RetryIf func(err error) bool

	// DelayFor returns the wait the server asked for, from Retry-After or a
	// rate-limit reset. When it reports false the backoff delay is used.
	DelayFor func(err error) (time.Duration, bool)

	// OnRetry observes each retry before its delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry re-runs a failed call a bounded number of times. The operation can
// read its attempt number with Attempt.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a Retry.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 2
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 60 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2
	}
	config.Jitter = min(max(config.Jitter, 0), 1)
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}
	return &Retry{config: config}
}

type attemptKey struct{}

// Attempt returns the 1-based attempt number of the Retry running ctx, or 1
// outside a Retry.
func Attempt(ctx context.Context) int {
	if n, ok := ctx.Value(attemptKey{}).(int); ok {
		return n
	}
	return 1
}

// newBackOff returns the backoff sequence for one Execute call.
func (r *Retry) newBackOff() backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     r.config.InitialDelay,
		RandomizationFactor: r.config.Jitter,
		Multiplier:          r.config.Multiplier,
		MaxInterval:         r.config.MaxDelay,
	}
	b.Reset()
	return b
}

// Execute calls op until it succeeds, RetryIf rejects its error or the
// attempts run out. The last error is returned unwrapped; a context that
// ends during a delay returns its own error.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	bo := r.newBackOff()
	for attempt := 1; ; attempt++ {
		err := op(context.WithValue(ctx, attemptKey{}, attempt))
		if err == nil || attempt >= r.config.MaxAttempts || !r.config.RetryIf(err) {
			return err
		}

		delay := bo.NextBackOff()
		if r.config.DelayFor != nil {
			if d, ok := r.config.DelayFor(err); ok {
				delay = max(d, 0)
			}
		}
		delay = min(delay, r.config.MaxDelay)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
