package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/smokecheck/health"
)

// Metrics records check outcomes.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCheck records one check outcome.
	RecordCheck(ctx context.Context, meta CheckMeta, outcome health.Outcome)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	failureCount metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the smoke.check.* instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"smoke.check.total",
		metric.WithDescription("Total number of smoke checks run"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	failureCount, err := meter.Int64Counter(
		"smoke.check.failures",
		metric.WithDescription("Total number of failed smoke checks"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"smoke.check.duration_ms",
		metric.WithDescription("Smoke check duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		failureCount: failureCount,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) RecordCheck(ctx context.Context, meta CheckMeta, outcome health.Outcome) {
	opt := metric.WithAttributes(attribute.String("check.id", meta.ID))

	m.totalCount.Add(ctx, 1, opt)
	if !outcome.Success {
		m.failureCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("check.id", meta.ID),
			attribute.String("check.kind", outcome.Kind.String()),
		))
	}
	m.durationHist.Record(ctx, float64(outcome.Duration.Milliseconds()), opt)
}
