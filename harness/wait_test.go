package harness_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openomni/tck/harness"
)

func fastHarness() *harness.Harness {
	return harness.New(harness.Config{
		Slack:        50 * time.Millisecond,
		PollInterval: time.Millisecond,
		WaitBound:    200 * time.Millisecond,
	})
}

func TestAwaitReturnsOnceConditionHolds(t *testing.T) {
	h := fastHarness()
	var polls int
	err := h.Await(context.Background(), 0, "three polls", func(context.Context) (bool, error) {
		polls++
		return polls >= 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, polls)
}

func TestAwaitExpiryReturnsWaitError(t *testing.T) {
	h := fastHarness()
	err := h.Await(context.Background(), 20*time.Millisecond, "the impossible", func(context.Context) (bool, error) {
		return false, nil
	})
	var waitErr *harness.WaitError
	require.ErrorAs(t, err, &waitErr)
	assert.Equal(t, "the impossible", waitErr.What)
	assert.Equal(t, 20*time.Millisecond, waitErr.Bound)
	assert.GreaterOrEqual(t, waitErr.Elapsed, waitErr.Bound)
	assert.Contains(t, waitErr.Error(), "the impossible")
}

func TestAwaitProbeErrorAborts(t *testing.T) {
	h := fastHarness()
	boom := errors.New("probe exploded")
	var polls int
	err := h.Await(context.Background(), 0, "never", func(context.Context) (bool, error) {
		polls++
		return false, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, polls)
}

func TestAwaitHonorsContextCancel(t *testing.T) {
	h := fastHarness()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.Await(ctx, time.Minute, "never", func(context.Context) (bool, error) {
		return false, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSleepWaitsRealTime(t *testing.T) {
	h := fastHarness()
	sw := h.Stopwatch()
	require.NoError(t, h.Sleep(context.Background(), 30*time.Millisecond))
	assert.GreaterOrEqual(t, sw.Elapsed(), 30*time.Millisecond)
}

func TestSleepCancelable(t *testing.T) {
	h := fastHarness()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.Sleep(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}
