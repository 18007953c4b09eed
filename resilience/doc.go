// Package resilience provides the guards applied to outbound API calls.
//
// # Patterns
//
//   - Retry: an explicit bounded loop. DelayFor lets the caller wait for the
//     delay the remote side asked for; RetryIf limits which errors are retried.
//     The attempt number is threaded through the context (see Attempt).
//
//   - Rate Limiter: a token bucket that throttles calls on the client side.
//
//   - Bulkhead: limits concurrent calls.
//
//   - Circuit Breaker: stops calling a service after consecutive failures.
//
//   - Timeout: a per-attempt deadline.
//
// # Usage
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts: 2,
//	    RetryIf:     isRateLimited,
//	    DelayFor:    providerDelay,
//	})
//
//	executor := resilience.NewExecutor(
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 5, WaitOnLimit: true})),
//	    resilience.WithRetry(retry),
//	    resilience.WithTimeout(10*time.Second),
//	)
//
//	result, err := resilience.Do(ctx, executor, func(ctx context.Context) (*Result, error) {
//	    return search(ctx)
//	})
package resilience
