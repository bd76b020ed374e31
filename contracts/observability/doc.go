// Package observability defines contracts for the telemetry an
// instrumented client must emit: trace spans, metrics, and structured
// log lines.
//
// All three contracts share the Probe capability, a single instrumented
// operation. The clauses invoke the probe and inspect what it emitted
// through fixture artifacts backed by in-memory exporters, so no
// collector is needed to certify a provider.
package observability
