package observe

import (
	"context"
	"time"

	"github.com/jonwraymond/smokecheck/health"
)

// Middleware wraps checkers with tracing, metrics and logging.
//
// Contract:
//   - The wrapped checker keeps the inner checker's ID.
//   - The outcome is passed through unchanged, except that a missing
//     Duration is filled in.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	target  string
}

// NewMiddleware creates a Middleware. Target is attached to every check's
// telemetry and may be empty.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger, target string) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
		target:  target,
	}
}

// Wrap returns a checker that instruments c.
func (m *Middleware) Wrap(c health.Checker) health.Checker {
	id := c.ID()
	meta := MetaFor(id, m.target)

	return health.NewCheckerFunc(id, func(ctx context.Context) health.Outcome {
		ctx, span := m.tracer.StartSpan(ctx, meta)

		start := time.Now()
		outcome := c.Check(ctx)
		if outcome.Duration == 0 {
			outcome.Duration = time.Since(start)
		}

		m.tracer.EndSpan(span, outcome)
		m.metrics.RecordCheck(ctx, meta, outcome)

		checkLogger := m.logger.WithCheck(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(outcome.Duration.Milliseconds())},
			{Key: "detail", Value: outcome.Detail},
		}
		if outcome.Success {
			checkLogger.Info(ctx, "check passed", fields...)
		} else {
			fields = append(fields, Field{Key: "kind", Value: outcome.Kind.String()})
			checkLogger.Warn(ctx, "check failed", fields...)
		}

		return outcome
	})
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer, target string) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger(), target), nil
}
