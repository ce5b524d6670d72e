package health

import (
	"context"
	"time"
)

// CheckID identifies one of the smoke checks.
type CheckID int

const (
	// CheckLiveness asks the process supervisor whether the service runs.
	CheckLiveness CheckID = iota
	// CheckHealth calls the service's root endpoint and verifies the sentinel.
	CheckHealth
	// CheckConfig verifies the service's own configuration file.
	CheckConfig
	// CheckCrudRoundTrip creates and lists status records.
	CheckCrudRoundTrip
)

// String returns the string representation of the check identifier.
func (c CheckID) String() string {
	switch c {
	case CheckLiveness:
		return "liveness"
	case CheckHealth:
		return "health"
	case CheckConfig:
		return "config"
	case CheckCrudRoundTrip:
		return "crud_round_trip"
	default:
		return "unknown"
	}
}

// Title returns a human-readable label for reports.
func (c CheckID) Title() string {
	switch c {
	case CheckLiveness:
		return "Service Running"
	case CheckHealth:
		return "Health Check"
	case CheckConfig:
		return "Database Config"
	case CheckCrudRoundTrip:
		return "Status Endpoints"
	default:
		return "Unknown"
	}
}

// Outcome contains the result of a single check.
//
// An Outcome is built once by its checker and never modified afterwards;
// the With* helpers return copies.
type Outcome struct {
	// Check identifies which check produced this outcome.
	Check CheckID

	// Success reports whether the check passed.
	Success bool

	// Kind classifies the failure. KindNone on success.
	Kind Kind

	// Detail is a human-readable description of what happened.
	Detail string

	// Payload is the raw response body, when the check received one.
	Payload []byte

	// Duration is how long the check took.
	Duration time.Duration

	// Timestamp is when the check was performed.
	Timestamp time.Time

	// Err is the underlying error if the check failed.
	Err error
}

// Pass creates a successful outcome.
func Pass(check CheckID, detail string) Outcome {
	return Outcome{
		Check:     check,
		Success:   true,
		Kind:      KindNone,
		Detail:    detail,
		Timestamp: time.Now(),
	}
}

// Fail creates a failed outcome of the given kind.
// When err is nil, the kind's sentinel error is recorded instead.
func Fail(check CheckID, kind Kind, detail string, err error) Outcome {
	if err == nil {
		err = kind.Err()
	}
	return Outcome{
		Check:     check,
		Success:   false,
		Kind:      kind,
		Detail:    detail,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// WithPayload attaches a raw response body to an outcome.
func (o Outcome) WithPayload(payload []byte) Outcome {
	o.Payload = payload
	return o
}

// WithDuration sets the duration on an outcome.
func (o Outcome) WithDuration(d time.Duration) Outcome {
	o.Duration = d
	return o
}

// Checker is the interface for smoke checks.
//
// Contract:
//   - Check must not panic and must not return errors past its boundary;
//     every failure is reported through the returned Outcome.
//   - Check must bound its own blocking calls; the aggregator does not
//     impose a deadline.
type Checker interface {
	// ID returns the identifier of this checker.
	ID() CheckID

	// Check performs the verification and returns its outcome.
	Check(ctx context.Context) Outcome
}

// CheckerFunc is an adapter to allow ordinary functions to be used as Checkers.
type CheckerFunc struct {
	id CheckID
	fn func(context.Context) Outcome
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(id CheckID, fn func(context.Context) Outcome) *CheckerFunc {
	return &CheckerFunc{id: id, fn: fn}
}

// ID returns the identifier of this checker.
func (f *CheckerFunc) ID() CheckID {
	return f.id
}

// Check performs the check.
func (f *CheckerFunc) Check(ctx context.Context) Outcome {
	return f.fn(ctx)
}
