package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/smokecheck/health"
)

// CheckMeta describes a check for telemetry purposes.
type CheckMeta struct {
	ID     string // Stable identifier, e.g. "health" (required)
	Name   string // Report title, e.g. "Health Check"
	Target string // Endpoint the check runs against (optional)
}

// MetaFor builds the metadata of a registered check.
func MetaFor(id health.CheckID, target string) CheckMeta {
	return CheckMeta{ID: id.String(), Name: id.Title(), Target: target}
}

// SpanName returns the span name for this check: smoke.check.<id>.
func (m CheckMeta) SpanName() string {
	return "smoke.check." + m.ID
}

// Validate reports whether the metadata is usable.
func (m CheckMeta) Validate() error {
	if m.ID == "" {
		return ErrMissingCheckID
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with check-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a check.
	StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the outcome's failure if any.
	EndSpan(span trace.Span, outcome health.Outcome)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with check metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("check.id", meta.ID),
		attribute.Bool("check.success", false),
	}
	if meta.Name != "" {
		attrs = append(attrs, attribute.String("check.name", meta.Name))
	}
	if meta.Target != "" {
		attrs = append(attrs, attribute.String("check.target", meta.Target))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span with the outcome's status.
func (t *tracerImpl) EndSpan(span trace.Span, outcome health.Outcome) {
	if outcome.Success {
		span.SetAttributes(attribute.Bool("check.success", true))
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetAttributes(attribute.String("check.kind", outcome.Kind.String()))
		span.SetStatus(codes.Error, outcome.Detail)
		if outcome.Err != nil {
			span.RecordError(outcome.Err)
		}
	}
	span.End()
}
