package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/codescout/githubapi"
	"github.com/jonwraymond/codescout/resilience"
)

// RateLimitCheckerConfig configures the GitHub rate-limit checker.
type RateLimitCheckerConfig struct {
	// Rates reports the last rate state of each pooled client. Required.
	Rates func() []githubapi.RateSnapshot

	// LowRemaining is the remaining/limit ratio reported as an issue.
	// Default: 0.1
	LowRemaining float64

	// Now is the clock. Default: time.Now
	Now func() time.Time
}

// RateLimitChecker reports clients that are close to or past their GitHub
// rate limit.
type RateLimitChecker struct {
	config RateLimitCheckerConfig
}

// NewRateLimitChecker creates a rate-limit checker.
func NewRateLimitChecker(config RateLimitCheckerConfig) *RateLimitChecker {
	if config.LowRemaining <= 0 || config.LowRemaining >= 1 {
		config.LowRemaining = 0.1
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &RateLimitChecker{config: config}
}

// Name returns the name of this checker.
func (c *RateLimitChecker) Name() string {
	return "github.ratelimit"
}

// Check inspects the rate snapshots. Snapshots whose reset time has passed
// are ignored.
func (c *RateLimitChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}
	if c.config.Rates == nil {
		return Unhealthy("rate snapshots unavailable", ErrNoSource)
	}

	now := c.config.Now()
	rates := c.config.Rates()
	result := Healthy("rate limits ok")
	clients := make([]map[string]any, 0, len(rates))

	for _, r := range rates {
		clients = append(clients, map[string]any{
			"client":    r.Client,
			"limit":     r.Limit,
			"remaining": r.Remaining,
			"reset_at":  r.ResetAt.UTC().Format(time.RFC3339),
		})
		if !r.ResetAt.After(now) || r.Limit <= 0 {
			continue
		}

		wait := r.ResetAt.Sub(now).Round(time.Second)
		switch {
		case r.Remaining == 0:
			result = result.WithIssue(
				fmt.Sprintf("client %s exhausted its rate limit of %d; resets in %s", r.Client, r.Limit, wait),
				recommendationFor(r),
			)
		case float64(r.Remaining)/float64(r.Limit) < c.config.LowRemaining:
			result = result.WithIssue(
				fmt.Sprintf("client %s has %d of %d requests left; resets in %s", r.Client, r.Remaining, r.Limit, wait),
				recommendationFor(r),
			)
		}
	}

	if len(result.Issues) > 0 {
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("%d client(s) near their rate limit", len(result.Issues))
	}
	return result.WithDetails(map[string]any{"clients": clients})
}

func recommendationFor(r githubapi.RateSnapshot) string {
	if r.Client == githubapi.AnonymousFingerprint {
		return "supply a GitHub token; unauthenticated requests have a much lower limit"
	}
	return "narrow search filters or enable caching for repeated queries"
}

// CircuitChecker reports the state of the GitHub circuit breaker.
type CircuitChecker struct {
	state func() resilience.State
}

// NewCircuitChecker creates a checker over a circuit state source.
func NewCircuitChecker(state func() resilience.State) *CircuitChecker {
	return &CircuitChecker{state: state}
}

// Name returns the name of this checker.
func (c *CircuitChecker) Name() string {
	return "github.circuit"
}

// Check maps open to unhealthy and half-open to degraded.
func (c *CircuitChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}
	if c.state == nil {
		return Unhealthy("circuit state unavailable", ErrNoSource)
	}

	state := c.state()
	details := map[string]any{"state": state.String()}
	switch state {
	case resilience.StateOpen:
		return Unhealthy("github circuit open", ErrCircuitOpen).
			WithIssue("GitHub API calls are failing and the circuit breaker is open",
				"check https://www.githubstatus.com and network connectivity").
			WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("github circuit half-open").
			WithIssue("the GitHub circuit breaker is probing after failures", "").
			WithDetails(details)
	default:
		return Healthy("github circuit closed").WithDetails(details)
	}
}
