package resilience

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when an operation exceeds its time budget.
var ErrTimeout = errors.New("resilience: operation timed out")

// TimeoutError reports the budget an operation exceeded.
// It matches ErrTimeout under errors.Is.
type TimeoutError struct {
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("resilience: operation exceeded %s budget", e.Budget)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
