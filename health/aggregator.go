package health

import (
	"context"
	"time"
)

// Exit codes produced by Report.ExitCode.
const (
	ExitOK     = 0
	ExitFailed = 1
)

// GateCheck is the only check whose outcome decides overall success.
// The other checks are advisory: always run, always reported, never gating.
const GateCheck = CheckHealth

// Report is the aggregation of all outcomes of one run.
type Report struct {
	// Target is the endpoint the HTTP checks ran against.
	Target string

	// Outcomes holds one outcome per check, in execution order.
	Outcomes []Outcome

	// Overall is true iff the GateCheck outcome succeeded.
	Overall bool

	// Duration is the wall time of the whole run.
	Duration time.Duration
}

// Passed returns the number of successful outcomes.
func (r Report) Passed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Success {
			n++
		}
	}
	return n
}

// Outcome returns the outcome for the given check, if present.
func (r Report) Outcome(id CheckID) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Check == id {
			return o, true
		}
	}
	return Outcome{}, false
}

// ExitCode returns ExitOK when the run passed overall, ExitFailed otherwise.
func (r Report) ExitCode() int {
	if r.Overall {
		return ExitOK
	}
	return ExitFailed
}

// Aggregate builds a report from outcomes.
// Overall success is taken from the GateCheck outcome alone; a missing
// gate outcome means the run failed.
func Aggregate(outcomes []Outcome) Report {
	ordered := make([]Outcome, len(outcomes))
	copy(ordered, outcomes)

	report := Report{Outcomes: ordered}
	if gate, ok := report.Outcome(GateCheck); ok {
		report.Overall = gate.Success
	}
	return report
}

// Aggregator runs registered checkers in order and aggregates their outcomes.
type Aggregator struct {
	checkers []Checker
}

// NewAggregator creates an aggregator with the given checkers, in run order.
func NewAggregator(checkers ...Checker) *Aggregator {
	a := &Aggregator{}
	for _, c := range checkers {
		a.Register(c)
	}
	return a
}

// Register appends a checker. A checker with an already registered ID
// replaces the earlier one in place.
func (a *Aggregator) Register(checker Checker) {
	if checker == nil {
		return
	}
	for i, c := range a.checkers {
		if c.ID() == checker.ID() {
			a.checkers[i] = checker
			return
		}
	}
	a.checkers = append(a.checkers, checker)
}

// Run executes every registered checker sequentially, each regardless of
// the previous outcomes, and aggregates the results.
func (a *Aggregator) Run(ctx context.Context) Report {
	start := time.Now()

	outcomes := make([]Outcome, 0, len(a.checkers))
	for _, c := range a.checkers {
		outcomes = append(outcomes, a.runCheck(ctx, c))
	}

	report := Aggregate(outcomes)
	report.Duration = time.Since(start)
	return report
}

func (a *Aggregator) runCheck(ctx context.Context, checker Checker) Outcome {
	start := time.Now()
	outcome := checker.Check(ctx)

	// The registered ID wins over whatever the checker put in the outcome.
	outcome.Check = checker.ID()
	if outcome.Duration == 0 {
		outcome.Duration = time.Since(start)
	}
	if outcome.Timestamp.IsZero() {
		outcome.Timestamp = start
	}
	return outcome
}
