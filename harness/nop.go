package harness

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/smokecheck/observe"
)

// nopObserver carries only a logger; it is used when no observer can be built.
type nopObserver struct {
	logger observe.Logger
}

func (o nopObserver) Tracer() trace.Tracer               { return tracenoop.NewTracerProvider().Tracer("noop") }
func (o nopObserver) Meter() metric.Meter                { return metricnoop.NewMeterProvider().Meter("noop") }
func (o nopObserver) Logger() observe.Logger             { return o.logger }
func (o nopObserver) Shutdown(ctx context.Context) error { return nil }
