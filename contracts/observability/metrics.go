package observability

import (
	"context"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/openomni/tck/tck"
)

// Instrument names and attribute keys every certified client must use.
const (
	CounterName   = "client.operations.total"
	HistogramName = "client.operations.duration"

	AttrOperation = "operation"
	AttrStatus    = "status"

	StatusSuccess = "success"
	StatusError   = "error"
)

// MetricsDumpFunc collects the probe's accumulated metrics. Metrics
// fixtures expose it as the "metrics" artifact.
type MetricsDumpFunc func(ctx context.Context) (metricdata.ResourceMetrics, error)

// MetricsContract defines the compliance suite for metric emission.
func MetricsContract() *tck.Contract {
	c := tck.NewContract("observability", "metrics", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[Probe]()},
		Params: []tck.ParamSpec{
			tck.ParamWithDefault[bool]("fail_op", false),
		},
		Artifacts: []tck.ArtifactSpec{
			tck.Artifact[MetricsDumpFunc]("metrics"),
		},
	})
	c.Clause("success_counted_with_status",
		"A successful probe increments the operation counter with status=success.", metricsSuccessCount)
	c.Clause("failure_counted_with_status",
		"A failing probe increments the operation counter with status=error.", metricsErrorCount)
	c.Clause("duration_histogram_records",
		"Each probe records one positive duration histogram measurement.", metricsHistogram)
	return c
}

func metricsEnv(ctx context.Context, tc *tck.TC, params tck.Params) (Probe, MetricsDumpFunc, error) {
	env, err := tc.Env(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	probe, err := tck.ProviderAs[Probe](env)
	if err != nil {
		return nil, nil, err
	}
	dump, err := tck.ArtifactAs[MetricsDumpFunc](env, "metrics")
	if err != nil {
		return nil, nil, err
	}
	return probe, dump, nil
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// counterValue sums the counter's data points whose status attribute
// matches.
func counterValue(rm metricdata.ResourceMetrics, status string) (int64, error) {
	m, ok := findMetric(rm, CounterName)
	if !ok {
		return 0, fmt.Errorf("metric %q not found", CounterName)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		return 0, fmt.Errorf("metric %q: expected int64 sum, got %T", CounterName, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(AttrStatus)); ok && v.AsString() == status {
			total += dp.Value
		}
	}
	return total, nil
}

func metricsSuccessCount(ctx context.Context, tc *tck.TC) error {
	probe, dump, err := metricsEnv(ctx, tc, nil)
	if err != nil {
		return err
	}
	if err := probe.Do(ctx); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	rm, err := dump(ctx)
	if err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}
	got, err := counterValue(rm, StatusSuccess)
	if err != nil {
		return tck.Violated("operation counter", "present with status=success", err.Error())
	}
	if got != 1 {
		return tck.Violated("counter value for status=success", int64(1), got)
	}
	m, _ := findMetric(rm, CounterName)
	sum := m.Data.(metricdata.Sum[int64])
	for _, dp := range sum.DataPoints {
		if _, ok := dp.Attributes.Value(attribute.Key(AttrOperation)); !ok {
			return tck.Violated("counter attributes", AttrOperation+" attribute present", "absent")
		}
	}
	return nil
}

func metricsErrorCount(ctx context.Context, tc *tck.TC) error {
	probe, dump, err := metricsEnv(ctx, tc, tck.Params{"fail_op": true})
	if err != nil {
		return err
	}
	if err := probe.Do(ctx); err == nil {
		return tck.Violated("probe with fail_op", "an error", "nil")
	}
	rm, err := dump(ctx)
	if err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}
	got, err := counterValue(rm, StatusError)
	if err != nil {
		return tck.Violated("operation counter", "present with status=error", err.Error())
	}
	if got != 1 {
		return tck.Violated("counter value for status=error", int64(1), got)
	}
	success, err := counterValue(rm, StatusSuccess)
	if err != nil {
		return tck.Violated("operation counter", "readable", err.Error())
	}
	if success != 0 {
		return tck.Violated("counter value for status=success after failure", int64(0), success)
	}
	return nil
}

func metricsHistogram(ctx context.Context, tc *tck.TC) error {
	probe, dump, err := metricsEnv(ctx, tc, nil)
	if err != nil {
		return err
	}
	if err := probe.Do(ctx); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	rm, err := dump(ctx)
	if err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}
	m, ok := findMetric(rm, HistogramName)
	if !ok {
		return tck.Violated("duration histogram", HistogramName+" present", "absent")
	}
	hist, ok := m.Data.(metricdata.Histogram[float64])
	if !ok {
		return tck.Violated("duration histogram data", "float64 histogram", fmt.Sprintf("%T", m.Data))
	}
	var count uint64
	var sum float64
	for _, dp := range hist.DataPoints {
		count += dp.Count
		sum += dp.Sum
	}
	if count != 1 {
		return tck.Violated("histogram measurement count", uint64(1), count)
	}
	if sum <= 0 {
		return tck.Violated("histogram duration sum", "> 0", sum)
	}
	return nil
}
