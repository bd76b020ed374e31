package memory

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/openomni/tck/contracts/observability"
	"github.com/openomni/tck/tck"
)

const probeSpanName = "client.operation"

var errProbeFailed = errors.New("probe operation failed")

// lockedBuffer is a write-locked byte buffer shared between the slog
// handler and the log dump artifact.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

// InstrumentedClient is the reference Probe: every Do emits one span,
// one counter increment, one duration measurement, and one JSON log
// line.
type InstrumentedClient struct {
	tracer    trace.Tracer
	counter   metric.Int64Counter
	histogram metric.Float64Histogram
	logger    *slog.Logger

	failOp bool
	tenant string
}

func (c *InstrumentedClient) Do(ctx context.Context) error {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, probeSpanName,
		trace.WithAttributes(attribute.String(observability.AttrOperation, "do")))
	defer span.End()

	var err error
	status := observability.StatusSuccess
	if c.failOp {
		err = errProbeFailed
		status = observability.StatusError
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}

	attrs := metric.WithAttributes(
		attribute.String(observability.AttrOperation, "do"),
		attribute.String(observability.AttrStatus, status),
	)
	c.counter.Add(ctx, 1, attrs)
	c.histogram.Record(ctx, time.Since(start).Seconds(), attrs)

	logAttrs := []slog.Attr{
		slog.String("trace_id", span.SpanContext().TraceID().String()),
		slog.String(observability.AttrOperation, "do"),
	}
	if c.tenant != "" {
		logAttrs = append(logAttrs, slog.String("tenant_id", c.tenant))
	}
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "operation failed", append(logAttrs, slog.Any("error", err))...)
	} else {
		c.logger.LogAttrs(ctx, slog.LevelInfo, "operation completed", logAttrs...)
	}
	return err
}

// InstrumentedFixture builds a fixture whose telemetry pipelines are
// in-memory: a synchronous span exporter, a manual metric reader, and
// a JSON slog buffer, all exposed as artifacts.
func InstrumentedFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*InstrumentedClient)(nil)),
			Params: []tck.ParamSpec{
				tck.ParamWithDefault[bool]("fail_op", false),
				tck.ParamWithDefault[string]("tenant_id", ""),
			},
			Artifacts: []tck.ArtifactSpec{
				tck.Artifact[observability.SpanDumpFunc]("finished_spans"),
				tck.Artifact[observability.MetricsDumpFunc]("metrics"),
				tck.Artifact[observability.LogDumpFunc]("log_lines"),
				tck.Artifact[map[string]string]("expected_attributes"),
			},
		},
		New: func(context.Context) (tck.Factory, error) {
			exporter := tracetest.NewInMemoryExporter()
			tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
			reader := sdkmetric.NewManualReader()
			meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
			logBuf := &lockedBuffer{}
			logger := slog.New(slog.NewJSONHandler(logBuf, nil))

			meter := meterProvider.Meter("tck/instrumented")
			counter, err := meter.Int64Counter(observability.CounterName,
				metric.WithDescription("completed client operations"))
			if err != nil {
				return nil, err
			}
			histogram, err := meter.Float64Histogram(observability.HistogramName,
				metric.WithDescription("client operation duration"),
				metric.WithUnit("s"))
			if err != nil {
				return nil, err
			}
			tracer := tracerProvider.Tracer("tck/instrumented")

			return func(_ context.Context, params tck.Params) (*tck.Env, error) {
				failOp, err := tck.ParamValue[bool](params, "fail_op")
				if err != nil {
					return nil, err
				}
				tenant, err := tck.ParamValue[string](params, "tenant_id")
				if err != nil {
					return nil, err
				}
				client := &InstrumentedClient{
					tracer:    tracer,
					counter:   counter,
					histogram: histogram,
					logger:    logger,
					failOp:    failOp,
					tenant:    tenant,
				}
				return &tck.Env{
					Provider: client,
					Artifacts: map[string]any{
						"finished_spans": observability.SpanDumpFunc(exporter.GetSpans),
						"metrics": observability.MetricsDumpFunc(func(ctx context.Context) (metricdata.ResourceMetrics, error) {
							var rm metricdata.ResourceMetrics
							err := reader.Collect(ctx, &rm)
							return rm, err
						}),
						"log_lines":           observability.LogDumpFunc(logBuf.Bytes),
						"expected_attributes": map[string]string{observability.AttrOperation: "do"},
					},
					Cleanup: func(ctx context.Context) error {
						return errors.Join(
							tracerProvider.Shutdown(ctx),
							meterProvider.Shutdown(ctx),
						)
					},
				}, nil
			}, nil
		},
	}
}

var _ observability.Probe = (*InstrumentedClient)(nil)
