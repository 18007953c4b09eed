package health

import (
	"context"
	"time"
)

// Status orders check outcomes by severity.
type Status int

const (
	StatusHealthy Status = iota
	// StatusDegraded still serves requests but reported issues.
	StatusDegraded
	// StatusUnhealthy cannot serve requests.
	StatusUnhealthy
)

var statusNames = [...]string{"healthy", "degraded", "unhealthy"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// worse returns the more severe of a and b.
func worse(a, b Status) Status { return max(a, b) }

// Result is the outcome of one check.
//
// Issues are single sentences describing what is wrong. Recommendations
// are the matching actions; an issue may have none.
type Result struct {
	Status          Status
	Message         string
	Issues          []string
	Recommendations []string
	Details         map[string]any
	Duration        time.Duration
	Timestamp       time.Time
	Error           error
}

func newResult(s Status, message string) Result {
	return Result{Status: s, Message: message, Timestamp: time.Now()}
}

// Healthy returns a healthy result.
func Healthy(message string) Result { return newResult(StatusHealthy, message) }

// Degraded returns a degraded result.
func Degraded(message string) Result { return newResult(StatusDegraded, message) }

// Unhealthy returns an unhealthy result carrying err.
func Unhealthy(message string, err error) Result {
	r := newResult(StatusUnhealthy, message)
	r.Error = err
	return r
}

// WithDetails sets Details.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithIssue appends issue and, if non-empty, recommendation.
func (r Result) WithIssue(issue, recommendation string) Result {
	r.Issues = append(r.Issues, issue)
	if recommendation != "" {
		r.Recommendations = append(r.Recommendations, recommendation)
	}
	return r
}

// Checker inspects one component.
//
// Contract:
// - Concurrency: Check may run on several goroutines at once.
// - Context: Check returns promptly once ctx is done.
// - Errors: failures are reported in the Result, never by panicking.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc returns a Checker named name that calls fn.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string                     { return f.name }
func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }
