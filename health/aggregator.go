package health

import (
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultCheckTimeout bounds a CheckAll or Report run.
const DefaultCheckTimeout = 10 * time.Second

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	// Timeout bounds one run of every check.
	// Default: DefaultCheckTimeout
	Timeout time.Duration
}

type namedChecker struct {
	name    string
	checker Checker
}

// Aggregator runs named checkers concurrently and merges their results.
//
// Contract:
// - Concurrency: safe for concurrent use, including Register during a run.
// - Ordering: Report lists issues in registration order; re-registering a
//   name keeps its original position.
// - Timeouts: a checker still running at the deadline is reported unhealthy
//   with ErrCheckTimeout.
type Aggregator struct {
	timeout time.Duration

	mu       sync.RWMutex
	checkers []namedChecker
}

// NewAggregator creates an Aggregator. Only the first config is used.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	a := &Aggregator{timeout: DefaultCheckTimeout}
	if len(config) > 0 && config[0].Timeout > 0 {
		a.timeout = config[0].Timeout
	}
	return a
}

// Register adds checker under name, replacing an earlier one of that name.
func (a *Aggregator) Register(name string, checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := slices.IndexFunc(a.checkers, func(c namedChecker) bool { return c.name == name })
	if i >= 0 {
		a.checkers[i].checker = checker
		return
	}
	a.checkers = append(a.checkers, namedChecker{name: name, checker: checker})
}

// CheckerNames returns the registered names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, len(a.checkers))
	for i, c := range a.checkers {
		names[i] = c.name
	}
	return names
}

func (a *Aggregator) snapshot() []namedChecker {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.checkers)
}

// Check runs the checker registered as name, or returns ErrCheckerNotFound.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	for _, c := range a.snapshot() {
		if c.name == name {
			ctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()
			return run(ctx, c.checker), nil
		}
	}
	return Result{}, ErrCheckerNotFound
}

// CheckAll runs every checker concurrently and returns results by name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	checkers := a.snapshot()
	return toMap(checkers, a.runAll(ctx, checkers))
}

func (a *Aggregator) runAll(ctx context.Context, checkers []namedChecker) []Result {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	results := make([]Result, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Go(func() { results[i] = run(ctx, c.checker) })
	}
	wg.Wait()
	return results
}

func toMap(checkers []namedChecker, results []Result) map[string]Result {
	m := make(map[string]Result, len(checkers))
	for i, c := range checkers {
		m[c.name] = results[i]
	}
	return m
}

// OverallStatus returns the most severe status in results. No results is
// healthy.
func (a *Aggregator) OverallStatus(results map[string]Result) Status {
	overall := StatusHealthy
	for _, r := range results {
		overall = worse(overall, r.Status)
	}
	return overall
}

// Report is the combined outcome of one run of every check.
type Report struct {
	Status          Status
	Checks          map[string]Result
	Issues          []string
	Recommendations []string
}

// Report runs every check. Issues are prefixed with the checker name; an
// unhealthy check without issues contributes its message. Each distinct
// recommendation appears once.
func (a *Aggregator) Report(ctx context.Context) Report {
	checkers := a.snapshot()
	results := a.runAll(ctx, checkers)

	report := Report{
		Checks:          toMap(checkers, results),
		Issues:          []string{},
		Recommendations: []string{},
	}
	report.Status = a.OverallStatus(report.Checks)

	for i, c := range checkers {
		r := results[i]
		for _, issue := range r.Issues {
			report.Issues = append(report.Issues, c.name+": "+issue)
		}
		if r.Status == StatusUnhealthy && len(r.Issues) == 0 {
			report.Issues = append(report.Issues, c.name+": "+r.Message)
		}
		for _, rec := range r.Recommendations {
			if !slices.Contains(report.Recommendations, rec) {
				report.Recommendations = append(report.Recommendations, rec)
			}
		}
	}
	return report
}

// run calls checker, giving up when ctx ends.
func run(ctx context.Context, checker Checker) Result {
	start := time.Now()
	done := make(chan Result, 1)
	go func() {
		r := checker.Check(ctx)
		if r.Timestamp.IsZero() {
			r.Timestamp = start
		}
		r.Duration = time.Since(start)
		done <- r
	}()

	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		return Result{
			Status:    StatusUnhealthy,
			Message:   "check did not finish in time",
			Error:     ErrCheckTimeout,
			Duration:  time.Since(start),
			Timestamp: start,
		}
	}
}
