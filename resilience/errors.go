package resilience

import "errors"

var (
	// ErrCircuitOpen stops calls while the breaker is open or a half-open
	// probe is already running.
	ErrCircuitOpen = errors.New("resilience: circuit open, calls suspended")

	// ErrRateLimitExceeded means the local throttle had no token within its
	// wait budget. No request was sent.
	ErrRateLimitExceeded = errors.New("resilience: local rate limit reached")

	// ErrBulkheadFull means every concurrency slot stayed taken.
	ErrBulkheadFull = errors.New("resilience: too many requests in flight")

	// ErrTimeout wraps the deadline error of a call cut short by Timeout.
	ErrTimeout = errors.New("resilience: call timed out")
)
