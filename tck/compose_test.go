package tck_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openomni/tck/tck"
)

type pinger interface{ Ping(context.Context) error }
type counter interface{ Count() int }

func noopClause(context.Context, *tck.TC) error { return nil }

func pingContract() *tck.Contract {
	c := tck.NewContract("core", "ping", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[pinger]()},
		Params: []tck.ParamSpec{
			tck.ParamWithDefault[string]("region", "local"),
		},
		Artifacts: []tck.ArtifactSpec{
			tck.OptionalArtifact[func() int]("probe_count"),
		},
	})
	return c.Clause("responds", "Ping returns without error.", noopClause)
}

func countContract() *tck.Contract {
	c := tck.NewContract("core", "count", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[counter]()},
		Params: []tck.ParamSpec{
			tck.ParamWithDefault[string]("region", "remote"),
		},
		Artifacts: []tck.ArtifactSpec{
			tck.Artifact[func() int]("probe_count"),
		},
	})
	return c.Clause("counts", "Count is non-negative.", noopClause).
		Clause("counts_again", "Count is stable.", noopClause)
}

func TestComposeUnionsRequirements(t *testing.T) {
	composed, err := tck.Compose(pingContract(), countContract())
	require.NoError(t, err)

	assert.Len(t, composed.Contracts, 2)
	assert.Equal(t, 3, composed.ClauseCount())
	assert.Len(t, composed.Requirement.Capabilities, 2)

	// Same name, same type: first declaration's default wins.
	require.Len(t, composed.Requirement.Params, 1)
	assert.Equal(t, "local", composed.Requirement.Params[0].Default)

	// A required artifact declaration strengthens the optional one.
	require.Len(t, composed.Requirement.Artifacts, 1)
	assert.False(t, composed.Requirement.Artifacts[0].Optional)
}

func TestComposeIsCommutativeOverClauses(t *testing.T) {
	ab, err := tck.Compose(pingContract(), countContract())
	require.NoError(t, err)
	ba, err := tck.Compose(countContract(), pingContract())
	require.NoError(t, err)

	assert.Equal(t, ab.ClauseCount(), ba.ClauseCount())
	assert.ElementsMatch(t,
		[]string{ab.Contracts[0].ID(), ab.Contracts[1].ID()},
		[]string{ba.Contracts[0].ID(), ba.Contracts[1].ID()})
}

func TestComposeDeduplicatesByID(t *testing.T) {
	composed, err := tck.Compose(pingContract(), pingContract())
	require.NoError(t, err)
	assert.Len(t, composed.Contracts, 1)
	assert.Equal(t, 1, composed.ClauseCount())
}

func TestComposeParamTypeConflict(t *testing.T) {
	a := tck.NewContract("core", "a", "1.0.0", tck.Requirement{
		Params: []tck.ParamSpec{tck.Param[string]("ttl")},
	}).Clause("x", "", noopClause)
	b := tck.NewContract("core", "b", "1.0.0", tck.Requirement{
		Params: []tck.ParamSpec{tck.Param[time.Duration]("ttl")},
	}).Clause("y", "", noopClause)

	_, err := tck.Compose(a, b)
	var conflict *tck.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "parameter", conflict.Kind)
	assert.Equal(t, "ttl", conflict.Name)
	assert.Equal(t, "core/a", conflict.First)
	assert.Equal(t, "core/b", conflict.Second)
	assert.Contains(t, conflict.Error(), `"ttl"`)
}

func TestComposeArtifactTypeConflict(t *testing.T) {
	a := tck.NewContract("core", "a", "1.0.0", tck.Requirement{
		Artifacts: []tck.ArtifactSpec{tck.Artifact[func() int]("dump")},
	}).Clause("x", "", noopClause)
	b := tck.NewContract("core", "b", "1.0.0", tck.Requirement{
		Artifacts: []tck.ArtifactSpec{tck.Artifact[func() string]("dump")},
	}).Clause("y", "", noopClause)

	_, err := tck.Compose(a, b)
	var conflict *tck.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "artifact", conflict.Kind)
}

func TestClausePanicsOnAuthoringMistakes(t *testing.T) {
	c := tck.NewContract("core", "dup", "1.0.0", tck.Requirement{})
	c.Clause("once", "", noopClause)
	assert.Panics(t, func() { c.Clause("once", "", noopClause) })
	assert.Panics(t, func() { c.Clause("", "", noopClause) })
	assert.Panics(t, func() { c.Clause("nobody", "", nil) })
}

func TestCapabilityPanicsOnNonInterface(t *testing.T) {
	assert.Panics(t, func() { tck.Capability[int]() })
}
