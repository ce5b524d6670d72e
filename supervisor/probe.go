package supervisor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonwraymond/smokecheck/health"
	"github.com/jonwraymond/smokecheck/resilience"
)

// Probe defaults.
const (
	DefaultService = "backend"
	DefaultMarker  = "RUNNING"
	DefaultTimeout = 10 * time.Second
)

// ProbeConfig configures a Probe. Zero fields take the package defaults.
type ProbeConfig struct {
	// Service is the supervisor program name.
	Service string
	// Marker must appear in the status text for the check to pass. Case-sensitive.
	Marker string
	// Timeout bounds the whole status query.
	Timeout time.Duration
}

// Probe is the liveness checker.
type Probe struct {
	runner Runner
	config ProbeConfig
}

var _ health.Checker = (*Probe)(nil)

// NewProbe creates a liveness probe. A nil runner uses a CommandRunner with
// DefaultCommand.
func NewProbe(runner Runner, config ProbeConfig) *Probe {
	if runner == nil {
		runner = &CommandRunner{}
	}
	if config.Service == "" {
		config.Service = DefaultService
	}
	if config.Marker == "" {
		config.Marker = DefaultMarker
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Probe{runner: runner, config: config}
}

// ID returns health.CheckLiveness.
func (p *Probe) ID() health.CheckID {
	return health.CheckLiveness
}

// Check asks the runner for the service status and looks for the marker.
func (p *Probe) Check(ctx context.Context) health.Outcome {
	start := time.Now()

	var text string
	err := resilience.ExecuteWithTimeout(ctx, p.config.Timeout, func(ctx context.Context) error {
		var err error
		text, err = p.runner.Status(ctx, p.config.Service)
		return err
	})

	if err != nil {
		// On timeout the runner may still be writing text.
		return p.outcome("", err).WithDuration(time.Since(start))
	}
	return p.outcome(text, nil).WithDuration(time.Since(start))
}

func (p *Probe) outcome(text string, err error) health.Outcome {
	switch {
	case errors.Is(err, resilience.ErrTimeout):
		return health.Fail(health.CheckLiveness, health.KindTimeout,
			health.KindTimeout.Detailf("no status for %s within %s", p.config.Service, p.config.Timeout), err)

	case health.Classify(err) == health.KindCanceled:
		return health.Fail(health.CheckLiveness, health.KindCanceled,
			health.KindCanceled.Detailf("run interrupted before %s reported", p.config.Service), err)

	case err != nil:
		return health.Fail(health.CheckLiveness, health.KindSupervisionUnavailable,
			health.KindSupervisionUnavailable.Detailf("%v", err), err)

	case strings.Contains(text, p.config.Marker):
		return health.Pass(health.CheckLiveness, firstLine(text))

	default:
		return health.Fail(health.CheckLiveness, health.KindProtocol,
			health.KindProtocol.Detailf("%s not %s: %s", p.config.Service, p.config.Marker, firstLine(text)), nil)
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	if line == "" {
		return "(empty status)"
	}
	return strings.Join(strings.Fields(line), " ")
}
