package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/openomni/tck/tck"
)

// LogDumpFunc returns the raw log output the probe has produced so far,
// one JSON object per line. Logging fixtures expose it as the
// "log_lines" artifact.
type LogDumpFunc func() []byte

// LoggingContract defines the compliance suite for structured log
// emission.
func LoggingContract() *tck.Contract {
	c := tck.NewContract("observability", "logging", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[Probe]()},
		Params: []tck.ParamSpec{
			tck.ParamWithDefault[bool]("fail_op", false),
			tck.ParamWithDefault[string]("tenant_id", ""),
		},
		Artifacts: []tck.ArtifactSpec{
			tck.Artifact[LogDumpFunc]("log_lines"),
		},
	})
	c.Clause("lines_are_structured_json",
		"Every log line is a JSON object with time, level, and msg.", loggingStructured)
	c.Clause("lines_carry_trace_id",
		"Log lines emitted inside a trace carry its trace id.", loggingTraceID)
	c.Clause("lines_carry_tenant_id",
		"Log lines carry the tenant the fixture was scoped to.", loggingTenantID)
	return c
}

func loggingEnv(ctx context.Context, tc *tck.TC, params tck.Params) (Probe, LogDumpFunc, error) {
	env, err := tc.Env(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	probe, err := tck.ProviderAs[Probe](env)
	if err != nil {
		return nil, nil, err
	}
	dump, err := tck.ArtifactAs[LogDumpFunc](env, "log_lines")
	if err != nil {
		return nil, nil, err
	}
	return probe, dump, nil
}

func parseLogLines(raw []byte) ([]map[string]any, error) {
	var lines []map[string]any
	for i, line := range bytes.Split(bytes.TrimSpace(raw), []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("line %d is not a JSON object: %w", i+1, err)
		}
		lines = append(lines, entry)
	}
	return lines, nil
}

func loggingStructured(ctx context.Context, tc *tck.TC) error {
	probe, dump, err := loggingEnv(ctx, tc, nil)
	if err != nil {
		return err
	}
	if err := probe.Do(ctx); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	lines, err := parseLogLines(dump())
	if err != nil {
		return tck.Violated("log output", "JSON lines", err.Error())
	}
	if len(lines) == 0 {
		return tck.Violated("log output after probe", "at least one line", "none")
	}
	for i, entry := range lines {
		for _, field := range []string{"time", "level", "msg"} {
			if _, ok := entry[field]; !ok {
				return tck.Violated(fmt.Sprintf("log line %d", i+1), "field "+field, "absent")
			}
		}
	}
	return nil
}

func loggingTraceID(ctx context.Context, tc *tck.TC) error {
	probe, dump, err := loggingEnv(ctx, tc, nil)
	if err != nil {
		return err
	}
	ctx, parent := remoteParent(ctx)
	if err := probe.Do(ctx); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	lines, err := parseLogLines(dump())
	if err != nil {
		return tck.Violated("log output", "JSON lines", err.Error())
	}
	if len(lines) == 0 {
		return tck.Violated("log output after probe", "at least one line", "none")
	}
	want := parent.TraceID().String()
	for i, entry := range lines {
		got, _ := entry["trace_id"].(string)
		if got != want {
			return tck.Violated(fmt.Sprintf("trace_id in log line %d", i+1), want, got)
		}
	}
	return nil
}

func loggingTenantID(ctx context.Context, tc *tck.TC) error {
	tenant := "tenant-" + uuid.NewString()
	probe, dump, err := loggingEnv(ctx, tc, tck.Params{"tenant_id": tenant})
	if err != nil {
		return err
	}
	if err := probe.Do(ctx); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	lines, err := parseLogLines(dump())
	if err != nil {
		return tck.Violated("log output", "JSON lines", err.Error())
	}
	if len(lines) == 0 {
		return tck.Violated("log output after probe", "at least one line", "none")
	}
	for i, entry := range lines {
		got, _ := entry["tenant_id"].(string)
		if got != tenant {
			return tck.Violated(fmt.Sprintf("tenant_id in log line %d", i+1), tenant, got)
		}
	}
	return nil
}
