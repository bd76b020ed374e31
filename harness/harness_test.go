package harness_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openomni/tck/harness"
)

func TestNewFillsZeroFieldsWithDefaults(t *testing.T) {
	h := harness.New(harness.Config{Slack: 2 * time.Second})
	assert.Equal(t, 2*time.Second, h.Slack())
	assert.Equal(t, harness.Default().PollInterval, h.PollInterval())
	assert.Equal(t, harness.Default().WaitBound, h.Bound())
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := harness.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, harness.Default(), cfg)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TCK_TIMING_SLACK", "1s")
	t.Setenv("TCK_POLL_INTERVAL", "5ms")
	t.Setenv("TCK_WAIT_BOUND", "10s")

	cfg, err := harness.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Slack)
	assert.Equal(t, 5*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.WaitBound)
}

func TestFromEnvRejectsGarbage(t *testing.T) {
	t.Setenv("TCK_TIMING_SLACK", "not-a-duration")
	_, err := harness.FromEnv()
	require.Error(t, err)
}
