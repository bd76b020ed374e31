package observability

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Probe is one instrumented client operation. Do must emit the
// telemetry the composed contracts assert on: a span per call, the
// operation counter and duration histogram, and a structured log line.
// When the fixture's "fail_op" param is true, Do returns an error and
// the telemetry must reflect the failure.
type Probe interface {
	Do(ctx context.Context) error
}

// remoteParent fabricates an extracted-from-the-wire parent span
// context and attaches it to ctx, returning the updated ctx and the
// parent, so clauses can assert trace continuity.
func remoteParent(ctx context.Context) (context.Context, trace.SpanContext) {
	traceID := trace.TraceID(uuid.New())
	seed := uuid.New()
	var spanID trace.SpanID
	copy(spanID[:], seed[:8])
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	return trace.ContextWithSpanContext(ctx, parent), parent
}
