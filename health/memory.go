package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryCheckerConfig configures the memory health checker.
type MemoryCheckerConfig struct {
	// WarningThreshold is the heap/limit ratio that triggers degraded status.
	// Value should be between 0 and 1. Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the heap/limit ratio that triggers unhealthy status.
	// Value should be between 0 and 1. Default: 0.95
	CriticalThreshold float64

	// MaxAlloc is the heap budget in bytes. Zero uses the memory obtained
	// from the OS.
	// Default: 0
	MaxAlloc uint64

	// read is replaced in tests.
	read func(*runtime.MemStats)
}

// MemoryChecker checks heap usage. The response cache is the main consumer,
// so recommendations point at its size.
type MemoryChecker struct {
	config MemoryCheckerConfig
}

// NewMemoryChecker creates a new memory health checker.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = min(config.WarningThreshold+0.1, 0.99)
	}
	if config.read == nil {
		config.read = runtime.ReadMemStats
	}
	return &MemoryChecker{config: config}
}

// Name returns the name of this checker.
func (m *MemoryChecker) Name() string {
	return "memory"
}

// Check performs the memory health check.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	var stats runtime.MemStats
	m.config.read(&stats)

	limit := m.config.MaxAlloc
	if limit == 0 {
		limit = stats.Sys
	}
	if limit == 0 {
		return Healthy("memory stats unavailable")
	}

	ratio := float64(stats.HeapAlloc) / float64(limit)
	details := map[string]any{
		"heap_alloc_bytes": stats.HeapAlloc,
		"limit_bytes":      limit,
		"usage_percent":    ratio * 100,
		"num_gc":           stats.NumGC,
		"goroutines":       runtime.NumGoroutine(),
	}
	usage := fmt.Sprintf("%.1f%%", ratio*100)

	switch {
	case ratio >= m.config.CriticalThreshold:
		return Unhealthy("memory usage critical: "+usage, ErrCheckFailed).
			WithIssue("heap usage is at "+usage+" of its budget", "lower cache.max_entries or content.max_fragment_bytes").
			WithDetails(details)
	case ratio >= m.config.WarningThreshold:
		return Degraded("memory usage high: "+usage).
			WithIssue("heap usage is at "+usage+" of its budget", "lower cache.max_entries or content.max_fragment_bytes").
			WithDetails(details)
	default:
		return Healthy("memory usage normal: " + usage).WithDetails(details)
	}
}
