package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout is the budget used when none is given.
const DefaultTimeout = 10 * time.Second

// TimeoutConfig configures a Timeout.
type TimeoutConfig struct {
	// Timeout is the budget for one call.
	// Default: 10 seconds
	Timeout time.Duration
}

// Timeout bounds a single blocking call.
type Timeout struct {
	budget time.Duration
}

// NewTimeout creates a Timeout, applying DefaultTimeout to a non-positive budget.
func NewTimeout(config TimeoutConfig) *Timeout {
	budget := config.Timeout
	if budget <= 0 {
		budget = DefaultTimeout
	}
	return &Timeout{budget: budget}
}

// Execute runs op under the budget.
//
// Execute returns as soon as the budget elapses, even if op keeps running;
// op sees the expiry through its context. Exceeding the budget yields a
// *TimeoutError, whether Execute noticed first or op returned the deadline
// error itself. Cancellation of the parent context is returned unchanged.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	expired := &TimeoutError{Budget: t.budget}
	ctx, cancel := context.WithTimeoutCause(ctx, t.budget, expired)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- op(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		if cause := context.Cause(ctx); errors.Is(cause, ErrTimeout) {
			return cause
		}
		return expired
	}
	return err
}

// ExecuteWithTimeout runs op under a one-off Timeout of the given budget.
func ExecuteWithTimeout(ctx context.Context, budget time.Duration, op func(context.Context) error) error {
	return NewTimeout(TimeoutConfig{Timeout: budget}).Execute(ctx, op)
}
