package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunUnknownCertification(t *testing.T) {
	_, err := execute(t, "run", "memory/no_such_thing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no_such_thing")
}

func TestRunSingleCertification(t *testing.T) {
	out, err := execute(t, "run", "memory/kv_store", "--parallel", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "set_and_get_value")
	assert.Contains(t, out, "tenants_see_own_values")
	assert.Contains(t, out, "0 failed, 0 errored")
}

func TestRunJSONReport(t *testing.T) {
	out, err := execute(t, "--format", "json", "run", "memory/iam")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "PASS"`)
	assert.Contains(t, out, `"clause": "deny_overrides_allow"`)
}

func TestRunHonorsConfigInclude(t *testing.T) {
	path := writeConfig(t, "include:\n  - memory/object_storage\n")
	out, err := execute(t, "run", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "upload_and_download_object")
	assert.NotContains(t, out, "tenants_see_own_values")
}

func TestSelectCertificationsDefaultsToAll(t *testing.T) {
	certs, err := selectCertifications(nil, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(certs), 16)
}
