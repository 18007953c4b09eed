package resilience

import (
	"context"
	"sync"
	"time"
)

// State is a circuit breaker position.
type State int

const (
	// StateClosed lets calls through.
	StateClosed State = iota
	// StateOpen rejects calls without sending them.
	StateOpen
	// StateHalfOpen lets a few probe calls decide whether to close again.
	StateHalfOpen
)

var stateNames = [...]string{"closed", "open", "half-open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// CircuitBreakerConfig configures CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the run of consecutive failures that opens the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before a probe.
	// Default: 30s
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is how many probes may run while half-open.
	// Default: 1
	HalfOpenMaxRequests int

	// OnStateChange observes transitions. It runs after the breaker's lock
	// is released.
	OnStateChange func(from, to State)

	// IsFailure reports whether err says something about GitHub's health.
	// Errors about the request itself, such as not found or an invalid
	// query, should not count.
	// Default: any non-nil error
	IsFailure func(err error) bool
}

// CircuitBreaker stops sending calls to a service that keeps failing and
// probes it again after ResetTimeout.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: a rejected call returns ErrCircuitOpen without running.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
	probes    int
}

// NewCircuitBreaker creates a closed CircuitBreaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{config: config, now: time.Now}
}

// locked runs fn under the lock and reports a resulting state change.
func (cb *CircuitBreaker) locked(fn func()) {
	cb.mu.Lock()
	from := cb.state
	fn()
	to := cb.state
	cb.mu.Unlock()

	if from != to && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}

// set must be called with the lock held.
func (cb *CircuitBreaker) set(s State) {
	cb.state = s
	cb.probes = 0
	if s == StateOpen {
		cb.openedAt = cb.now()
	}
}

// refresh must be called with the lock held.
func (cb *CircuitBreaker) refresh() {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.ResetTimeout {
		cb.set(StateHalfOpen)
	}
}

// Execute runs op unless the circuit rejects it, and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := op(ctx)
	cb.after(err)
	return err
}

func (cb *CircuitBreaker) before() (err error) {
	cb.locked(func() {
		cb.refresh()
		switch {
		case cb.state == StateOpen:
			err = ErrCircuitOpen
		case cb.state == StateHalfOpen && cb.probes >= cb.config.HalfOpenMaxRequests:
			err = ErrCircuitOpen
		case cb.state == StateHalfOpen:
			cb.probes++
		}
	})
	return err
}

func (cb *CircuitBreaker) after(err error) {
	failed := cb.config.IsFailure(err)
	cb.locked(func() {
		if !failed {
			cb.failures = 0
			if cb.state == StateHalfOpen {
				cb.successes++
				cb.set(StateClosed)
			}
			return
		}
		switch cb.state {
		case StateHalfOpen:
			cb.set(StateOpen)
		case StateClosed:
			cb.failures++
			if cb.failures >= cb.config.MaxFailures {
				cb.set(StateOpen)
			}
		}
	})
}

// State returns the current position, moving an open circuit whose
// ResetTimeout has passed to half-open.
func (cb *CircuitBreaker) State() (s State) {
	cb.locked(func() {
		cb.refresh()
		s = cb.state
	})
	return s
}

// Reset closes the circuit and clears the failure run.
func (cb *CircuitBreaker) Reset() {
	cb.locked(func() {
		cb.failures = 0
		cb.successes = 0
		cb.set(StateClosed)
	})
}

// Metrics returns the position and counters.
func (cb *CircuitBreaker) Metrics() (m CircuitBreakerMetrics) {
	cb.locked(func() {
		cb.refresh()
		m = CircuitBreakerMetrics{
			State:     cb.state,
			Failures:  cb.failures,
			Successes: cb.successes,
			OpenedAt:  cb.openedAt,
		}
	})
	return m
}

// CircuitBreakerMetrics describes a CircuitBreaker.
type CircuitBreakerMetrics struct {
	State     State
	Failures  int
	Successes int
	OpenedAt  time.Time
}
