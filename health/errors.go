package health

import (
	"errors"
	"fmt"
)

var (
	// ErrCheckFailed is the base of every failing check result.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout marks a check cut off by the aggregator's deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for unknown names.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrNoSource marks a checker built without its stats source.
	ErrNoSource = fmt.Errorf("%w: stats source not configured", ErrCheckFailed)

	// ErrCircuitOpen marks an open GitHub circuit breaker.
	ErrCircuitOpen = fmt.Errorf("%w: github circuit open", ErrCheckFailed)
)
