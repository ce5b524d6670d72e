package harness

import (
	"context"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/smokecheck/checks"
	"github.com/jonwraymond/smokecheck/endpoint"
	"github.com/jonwraymond/smokecheck/health"
	"github.com/jonwraymond/smokecheck/observe"
	"github.com/jonwraymond/smokecheck/settings"
	"github.com/jonwraymond/smokecheck/supervisor"
)

// shutdownTimeout bounds flushing telemetry after the report is written.
const shutdownTimeout = 5 * time.Second

// Options configures a run.
type Options struct {
	// Settings is the effective configuration.
	Settings settings.Settings

	// SettingsErr is the error from loading the settings file, if any. It is
	// logged as a warning; Settings must already hold the fallback values.
	SettingsErr error

	// Version is reported as the service version in telemetry.
	Version string

	// Stdout receives the report. Stderr receives logs and stdout exporters.
	Stdout io.Writer
	Stderr io.Writer
}

// Run performs one smoke-test run and returns the exit code.
func Run(ctx context.Context, opts Options) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	s := opts.Settings

	obs := newObserver(ctx, s, opts)
	logger := obs.Logger()
	if opts.SettingsErr != nil {
		logger.Warn(ctx, "settings unusable, using defaults",
			observe.Field{Key: "error", Value: opts.SettingsErr.Error()})
	}

	ep := endpoint.NewResolver(s.EndpointConfig(), logger).Resolve()
	logger.Info(ctx, "smoke test starting", observe.Field{Key: "target", Value: ep.String()})

	ctx, span := obs.Tracer().Start(ctx, "smoke.run",
		trace.WithAttributes(attribute.String("smoke.target", ep.String())))

	agg := health.NewAggregator(Checkers(s, ep, obs)...)
	report := agg.Run(ctx)
	report.Target = ep.String()

	span.SetAttributes(
		attribute.Int("smoke.passed", report.Passed()),
		attribute.Int("smoke.total", len(report.Outcomes)),
	)
	if !report.Overall {
		span.SetStatus(codes.Error, "health check failed")
	}
	span.End()

	if err := render(opts.Stdout, s.Report.Format, report); err != nil {
		logger.Error(ctx, "failed to write report", observe.Field{Key: "error", Value: err.Error()})
	}

	logger.Info(ctx, "smoke test finished",
		observe.Field{Key: "overall", Value: report.Overall},
		observe.Field{Key: "passed", Value: report.Passed()},
		observe.Field{Key: "total", Value: len(report.Outcomes)},
		observe.Field{Key: "duration_ms", Value: float64(report.Duration.Milliseconds())},
	)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := obs.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "telemetry shutdown failed", observe.Field{Key: "error", Value: err.Error()})
	}

	return report.ExitCode()
}

// newObserver builds the observer from settings. If the telemetry section
// cannot be honored, logging alone is kept and the error is logged.
func newObserver(ctx context.Context, s settings.Settings, opts Options) observe.Observer {
	cfg := s.ObserveConfig(opts.Version, opts.Stderr)
	obs, err := observe.NewObserver(ctx, cfg)
	if err == nil {
		return obs
	}

	fallback := cfg
	fallback.Tracing = observe.TracingConfig{}
	fallback.Metrics = observe.MetricsConfig{}
	if fallback.Validate() != nil {
		fallback.Logging.Level = "info"
	}

	obs, fbErr := observe.NewObserver(ctx, fallback)
	if fbErr != nil {
		logger := observe.NewLoggerWithWriter("info", opts.Stderr)
		logger.Error(ctx, "telemetry unavailable", observe.Field{Key: "error", Value: fbErr.Error()})
		return nopObserver{logger: logger}
	}

	obs.Logger().Warn(ctx, "telemetry export disabled", observe.Field{Key: "error", Value: err.Error()})
	return obs
}

// Checkers builds the four checks in run order, instrumented through obs.
func Checkers(s settings.Settings, ep endpoint.Endpoint, obs observe.Observer) []health.Checker {
	clientConfig := s.ClientConfig()
	clientConfig.Tracer = obs.Tracer()
	client := checks.NewClient(clientConfig)

	list := []health.Checker{
		supervisor.NewProbe(s.Runner(), s.ProbeConfig()),
		checks.NewHealthCheck(ep, client, s.HealthConfig()),
		checks.NewConfigCheck(s.ConfigCheckConfig()),
		checks.NewCrudCheck(ep, client, s.CrudConfig()),
	}

	mw, err := observe.MiddlewareFromObserver(obs, ep.String())
	if err != nil {
		obs.Logger().Warn(context.Background(), "check instrumentation disabled",
			observe.Field{Key: "error", Value: err.Error()})
		return list
	}

	for i, c := range list {
		list[i] = mw.Wrap(c)
	}
	return list
}

func render(w io.Writer, format string, report health.Report) error {
	if format == settings.FormatJSON {
		return health.RenderJSON(w, report)
	}
	return health.Render(w, report)
}
