package resilience

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// BulkheadConfig configures a Bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is how many calls may hold a slot at once.
	// Default: 10
	MaxConcurrent int

	// MaxWait bounds how long Acquire waits for a slot. Zero fails at once.
	MaxWait time.Duration
}

// Bulkhead limits how many GitHub requests are in flight, so a burst of
// tree walks cannot starve searches of connections.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: Acquire returns ErrBulkheadFull when no slot frees up within
//   MaxWait, or ctx's error if ctx ends first.
type Bulkhead struct {
	sem     *semaphore.Weighted
	size    int
	maxWait time.Duration

	active   atomic.Int64
	peak     atomic.Int64
	rejected atomic.Int64
}

// NewBulkhead creates a Bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	return &Bulkhead{
		sem:     semaphore.NewWeighted(int64(config.MaxConcurrent)),
		size:    config.MaxConcurrent,
		maxWait: config.MaxWait,
	}
}

// Acquire takes a slot. Every successful Acquire needs one Release.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if !b.sem.TryAcquire(1) {
		if b.maxWait <= 0 {
			b.rejected.Add(1)
			return ErrBulkheadFull
		}
		waitCtx, cancel := context.WithTimeout(ctx, b.maxWait)
		err := b.sem.Acquire(waitCtx, 1)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.rejected.Add(1)
			return ErrBulkheadFull
		}
	}

	n := b.active.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return nil
}

// Release returns a slot taken by Acquire.
func (b *Bulkhead) Release() {
	b.active.Add(-1)
	b.sem.Release(1)
}

// Execute runs op while holding a slot.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()
	return op(ctx)
}

// Metrics returns current usage.
func (b *Bulkhead) Metrics() BulkheadMetrics {
	active := int(b.active.Load())
	return BulkheadMetrics{
		Active:        active,
		MaxActive:     int(b.peak.Load()),
		Available:     b.size - active,
		MaxConcurrent: b.size,
		Rejected:      b.rejected.Load(),
	}
}

// BulkheadMetrics describes a Bulkhead's usage.
type BulkheadMetrics struct {
	Active        int   `json:"active"`
	MaxActive     int   `json:"max_active"`
	Available     int   `json:"available"`
	MaxConcurrent int   `json:"max_concurrent"`
	Rejected      int64 `json:"rejected"`
}
