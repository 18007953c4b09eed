package resilience

import (
	"context"
	"slices"
	"time"
)

// Executor stacks the resilience layers that guard one class of GitHub
// calls. The client keeps one for searches and one for everything else.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an Executor with the given layers.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker sets the breaker layer. Executors may share one.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.circuitBreaker = cb }
}

// WithRetry sets the retry layer.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithRateLimiter sets the local throttle.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.rateLimiter = rl }
}

// WithBulkhead sets the concurrency limit. Executors may share one.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) { e.bulkhead = b }
}

// WithTimeout sets the per-attempt deadline.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout}) }
}

// Execute runs op through the configured layers, outermost first:
//
//	rate limiter  one token per logical call, retries included
//	bulkhead      one slot per logical call
//	breaker       rejects the call while GitHub is failing
//	retry         bounded re-attempts on throttling
//	timeout       a fresh deadline per attempt
//
// Layers that were not configured are skipped.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	type layer interface {
		Execute(context.Context, func(context.Context) error) error
	}
	var layers []layer
	if e.rateLimiter != nil {
		layers = append(layers, e.rateLimiter)
	}
	if e.bulkhead != nil {
		layers = append(layers, e.bulkhead)
	}
	if e.circuitBreaker != nil {
		layers = append(layers, e.circuitBreaker)
	}
	if e.retry != nil {
		layers = append(layers, e.retry)
	}
	if e.timeout != nil {
		layers = append(layers, e.timeout)
	}

	call := op
	for _, l := range slices.Backward(layers) {
		inner := call
		call = func(ctx context.Context) error { return l.Execute(ctx, inner) }
	}
	return call(ctx)
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker { return e.circuitBreaker }

// RateLimiter returns the configured throttle, or nil.
func (e *Executor) RateLimiter() *RateLimiter { return e.rateLimiter }

// Bulkhead returns the configured bulkhead, or nil.
func (e *Executor) Bulkhead() *Bulkhead { return e.bulkhead }

// Do runs op through e and returns the value produced by the last attempt.
// A nil executor runs op directly.
func Do[T any](ctx context.Context, e *Executor, op func(context.Context) (T, error)) (T, error) {
	var result T
	run := func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	}

	var err error
	if e == nil {
		err = run(ctx)
	} else {
		err = e.Execute(ctx, run)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
