package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds one GitHub request attempt.
const DefaultTimeout = 30 * time.Second

// TimeoutConfig configures Timeout.
type TimeoutConfig struct {
	// Timeout is the deadline for one attempt.
	// Default: DefaultTimeout
	Timeout time.Duration
}

// Timeout gives each call its own deadline. The call must honor ctx.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a Timeout.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Timeout{config: config}
}

// Config returns the effective configuration.
func (t *Timeout) Config() TimeoutConfig { return t.config }

// Execute runs op with the deadline. An error caused by this deadline, and
// not by ctx itself, matches ErrTimeout as well as op's error.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	err := op(callCtx)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrTimeout, t.config.Timeout, err)
	}
	return err
}

// ExecuteWithTimeout runs op under a one-off Timeout of d.
func ExecuteWithTimeout(ctx context.Context, d time.Duration, op func(context.Context) error) error {
	return NewTimeout(TimeoutConfig{Timeout: d}).Execute(ctx, op)
}
