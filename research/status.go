package research

import (
	"context"

	"github.com/jonwraymond/codescout/cache"
	"github.com/jonwraymond/codescout/githubapi"
	"github.com/jonwraymond/codescout/health"
	"github.com/jonwraymond/codescout/resilience"
)

// Stats is a snapshot of the orchestrator's shared structures.
type Stats struct {
	Cache    cache.Stats                `json:"cache"`
	Keys     cache.KeyStats             `json:"keys"`
	Pool     githubapi.PoolStats        `json:"pool"`
	Rates    []githubapi.RateSnapshot   `json:"rates,omitempty"`
	Circuit  string                     `json:"circuit"`
	InFlight resilience.BulkheadMetrics `json:"in_flight"`
}

// Stats returns current counters.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		Cache:    o.cache.Stats(),
		Keys:     o.keys.Stats(),
		Pool:     o.client.Pool().Stats(),
		Rates:    o.client.Pool().Rates(),
		Circuit:  o.client.CircuitState().String(),
		InFlight: o.client.Concurrency(),
	}
}

// HealthReport is the operational summary returned by Health.
type HealthReport struct {
	Status          string   `json:"status"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// Health runs every check and lists the issues found with what to do about
// them.
func (o *Orchestrator) Health(ctx context.Context) HealthReport {
	r := o.health.Report(ctx)
	return HealthReport{
		Status:          r.Status.String(),
		Issues:          r.Issues,
		Recommendations: r.Recommendations,
	}
}

// HealthAggregator exposes the checks for HTTP serving. See
// health.RegisterHandlers.
func (o *Orchestrator) HealthAggregator() *health.Aggregator {
	return o.health
}

func (o *Orchestrator) newHealth(config HealthConfig) *health.Aggregator {
	agg := health.NewAggregator()
	agg.Register("cache", health.NewCacheChecker(health.CacheCheckerConfig{
		Stats:      o.cache.Stats,
		KeyStats:   o.keys.Stats,
		MinHitRate: config.MinHitRate,
	}))
	agg.Register("github.ratelimit", health.NewRateLimitChecker(health.RateLimitCheckerConfig{
		Rates:        o.client.Pool().Rates,
		LowRemaining: config.LowRemaining,
	}))
	agg.Register("github.circuit", health.NewCircuitChecker(o.client.CircuitState))
	agg.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{
		MaxAlloc: config.MaxHeapBytes,
	}))
	return agg
}
