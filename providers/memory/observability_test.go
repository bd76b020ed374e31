package memory_test

import (
	"testing"

	"github.com/openomni/tck/contracts/observability"
	"github.com/openomni/tck/providers/memory"
)

func TestTracingCertification(t *testing.T) {
	certify(t, observability.TracingContract(), memory.InstrumentedFixture())
}

func TestMetricsCertification(t *testing.T) {
	certify(t, observability.MetricsContract(), memory.InstrumentedFixture())
}

func TestLoggingCertification(t *testing.T) {
	certify(t, observability.LoggingContract(), memory.InstrumentedFixture())
}

// All three telemetry contracts run against one fixture when composed.
func TestComposedObservabilityCertification(t *testing.T) {
	certify(t, observability.TracingContract(), memory.InstrumentedFixture(),
		observability.MetricsContract(), observability.LoggingContract())
}
