package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openomni/tck/harness"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRunConfig(t *testing.T) {
	path := writeConfig(t, `
slack: 2s
poll_interval: 25ms
parallelism: 8
include:
  - memory/kv_store
  - memory/cache
`)
	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Slack)
	assert.Equal(t, 25*time.Millisecond, cfg.PollInterval)
	assert.Zero(t, cfg.WaitBound)
	assert.Equal(t, 8, cfg.Parallelism)
	assert.Equal(t, []string{"memory/kv_store", "memory/cache"}, cfg.Include)
}

func TestLoadRunConfigRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "timing_slack: 2s\n")
	_, err := LoadRunConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timing_slack")
}

func TestLoadRunConfigMissingFile(t *testing.T) {
	_, err := LoadRunConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestHarnessConfigLayering(t *testing.T) {
	base := harness.Default()

	var nilCfg *RunConfig
	assert.Equal(t, base, nilCfg.harnessConfig(base))

	cfg := &RunConfig{Slack: time.Second}
	merged := cfg.harnessConfig(base)
	assert.Equal(t, time.Second, merged.Slack)
	assert.Equal(t, base.PollInterval, merged.PollInterval)
	assert.Equal(t, base.WaitBound, merged.WaitBound)
}
