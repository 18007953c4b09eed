package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/codescout/cache"
)

// CacheCheckerConfig configures the response cache checker.
type CacheCheckerConfig struct {
	// Stats reports response cache counters. Required.
	Stats func() cache.Stats

	// KeyStats reports key generator diagnostics. Optional.
	KeyStats func() cache.KeyStats

	// MinHitRate is the hit rate below which the cache is degraded.
	// Default: 0.2
	MinHitRate float64

	// MinLookups is the number of lookups required before the hit rate is
	// judged.
	// Default: 50
	MinLookups int64

	// FillWarning is the fill ratio at which evictions are reported.
	// Default: 0.9
	FillWarning float64
}

// CacheChecker turns cache statistics into issues and recommendations.
type CacheChecker struct {
	config CacheCheckerConfig
}

// NewCacheChecker creates a cache checker.
func NewCacheChecker(config CacheCheckerConfig) *CacheChecker {
	if config.MinHitRate <= 0 || config.MinHitRate >= 1 {
		config.MinHitRate = 0.2
	}
	if config.MinLookups <= 0 {
		config.MinLookups = 50
	}
	if config.FillWarning <= 0 || config.FillWarning > 1 {
		config.FillWarning = 0.9
	}
	return &CacheChecker{config: config}
}

// Name returns the name of this checker.
func (c *CacheChecker) Name() string {
	return "cache"
}

// Check inspects hit rate, fill ratio and key collisions.
func (c *CacheChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}
	if c.config.Stats == nil {
		return Unhealthy("cache stats unavailable", ErrNoSource)
	}

	s := c.config.Stats()
	details := map[string]any{
		"entries":     s.Entries,
		"max_entries": s.MaxEntries,
		"hits":        s.Hits,
		"misses":      s.Misses,
		"hit_rate":    s.HitRate,
		"evictions":   s.Evictions,
		"expirations": s.Expirations,
	}
	result := Healthy("cache healthy")

	if lookups := s.Hits + s.Misses; lookups >= c.config.MinLookups && s.HitRate < c.config.MinHitRate {
		result = result.WithIssue(
			fmt.Sprintf("cache hit rate %.1f%% over %d lookups is below %.0f%%", s.HitRate*100, lookups, c.config.MinHitRate*100),
			"raise the TTL of frequently repeated prefixes or reuse identical search filters",
		)
	}

	if s.MaxEntries > 0 {
		fill := float64(s.Entries) / float64(s.MaxEntries)
		details["fill_ratio"] = fill
		if fill >= c.config.FillWarning && s.Evictions > 0 {
			result = result.WithIssue(
				fmt.Sprintf("cache is %.0f%% full and has evicted %d entries", fill*100, s.Evictions),
				"increase cache.max_entries",
			)
		}
	}

	if c.config.KeyStats != nil {
		ks := c.config.KeyStats()
		details["collisions"] = ks.Collisions
		details["prefixes"] = len(ks.Prefixes)
		if ks.Collisions > 0 {
			result = result.WithIssue(
				fmt.Sprintf("%d cache key collisions observed", ks.Collisions),
				"flush the cache and bump cache.version",
			)
		}
	}

	if len(result.Issues) > 0 {
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("cache reported %d issue(s)", len(result.Issues))
	}
	return result.WithDetails(details)
}
