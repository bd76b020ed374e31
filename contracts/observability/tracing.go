package observability

import (
	"context"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/openomni/tck/tck"
)

// SpanDumpFunc returns every span the probe has finished so far.
// Tracing fixtures expose it as the "finished_spans" artifact.
type SpanDumpFunc func() tracetest.SpanStubs

// TracingContract defines the compliance suite for span emission. The
// optional "expected_attributes" artifact names attributes every probe
// span must carry; fixtures that set none skip that check.
func TracingContract() *tck.Contract {
	c := tck.NewContract("observability", "tracing", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[Probe]()},
		Params: []tck.ParamSpec{
			tck.ParamWithDefault[bool]("fail_op", false),
		},
		Artifacts: []tck.ArtifactSpec{
			tck.Artifact[SpanDumpFunc]("finished_spans"),
			tck.OptionalArtifact[map[string]string]("expected_attributes"),
		},
	})
	c.Clause("span_continues_remote_trace",
		"The probe span is a child of the extracted remote parent.", tracingContinuity)
	c.Clause("span_carries_expected_attributes",
		"Probe spans carry the fixture's expected attributes.", tracingAttributes)
	c.Clause("failure_sets_error_status",
		"A failing probe ends its span with error status and description.", tracingErrorStatus)
	return c
}

func tracingEnv(ctx context.Context, tc *tck.TC, params tck.Params) (Probe, SpanDumpFunc, *tck.Env, error) {
	env, err := tc.Env(ctx, params)
	if err != nil {
		return nil, nil, nil, err
	}
	probe, err := tck.ProviderAs[Probe](env)
	if err != nil {
		return nil, nil, nil, err
	}
	dump, err := tck.ArtifactAs[SpanDumpFunc](env, "finished_spans")
	if err != nil {
		return nil, nil, nil, err
	}
	return probe, dump, env, nil
}

func tracingContinuity(ctx context.Context, tc *tck.TC) error {
	probe, dump, _, err := tracingEnv(ctx, tc, nil)
	if err != nil {
		return err
	}
	ctx, parent := remoteParent(ctx)
	if err := probe.Do(ctx); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	spans := dump()
	if len(spans) == 0 {
		return tck.Violated("finished spans after probe", "at least one span", "none")
	}
	for _, span := range spans {
		if span.SpanContext.TraceID() != parent.TraceID() {
			return tck.Violated("span trace id", parent.TraceID().String(), span.SpanContext.TraceID().String())
		}
	}
	// At least one span must hang directly off the remote parent.
	for _, span := range spans {
		if span.Parent.SpanID() == parent.SpanID() {
			return nil
		}
	}
	return tck.Violated("span parentage", "a child of the remote parent span", "no span references it")
}

func tracingAttributes(ctx context.Context, tc *tck.TC) error {
	probe, dump, env, err := tracingEnv(ctx, tc, nil)
	if err != nil {
		return err
	}
	expected, err := tck.ArtifactAs[map[string]string](env, "expected_attributes")
	if err != nil {
		// Optional artifact not set: only require a named, ended span.
		expected = nil
	}
	if err := probe.Do(ctx); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	spans := dump()
	if len(spans) == 0 {
		return tck.Violated("finished spans after probe", "at least one span", "none")
	}
	span := spans[len(spans)-1]
	if span.Name == "" {
		return tck.Violated("span name", "non-empty", "empty")
	}
	attrs := make(map[string]string, len(span.Attributes))
	for _, kv := range span.Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	for name, want := range expected {
		if got, ok := attrs[name]; !ok || got != want {
			return tck.Violated("span attribute "+name, want, fmt.Sprintf("%q (present=%t)", got, ok))
		}
	}
	return nil
}

func tracingErrorStatus(ctx context.Context, tc *tck.TC) error {
	probe, dump, _, err := tracingEnv(ctx, tc, tck.Params{"fail_op": true})
	if err != nil {
		return err
	}
	if err := probe.Do(ctx); err == nil {
		return tck.Violated("probe with fail_op", "an error", "nil")
	}
	spans := dump()
	if len(spans) == 0 {
		return tck.Violated("finished spans after failing probe", "at least one span", "none")
	}
	span := spans[len(spans)-1]
	if span.Status.Code != codes.Error {
		return tck.Violated("span status code", codes.Error, span.Status.Code)
	}
	if span.Status.Description == "" {
		return tck.Violated("span status description", "non-empty", "empty")
	}
	return nil
}
