package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestListShowsBuiltins(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "memory/kv_store")
	assert.Contains(t, out, "sqlite/outbox_repository")
	assert.Contains(t, out, "memory/observability")
}

func TestListJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "memory/cache"`)
	assert.Contains(t, out, `"clauses"`)
}

func TestExitCodeMapping(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(&ExitError{Code: ExitFailure, Message: "x"}))
	assert.Equal(t, ExitCommandError, GetExitCode(assert.AnError))
}
