package harness_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openomni/tck/harness"
)

func TestGateReleasesWaiters(t *testing.T) {
	gate := harness.NewGate()
	released := make(chan struct{})
	go func() {
		_ = gate.Wait(context.Background())
		close(released)
	}()
	gate.Open()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("waiter not released after Open")
	}

	// Late waiters pass straight through; reopening is a no-op.
	gate.Open()
	require.NoError(t, gate.Wait(context.Background()))
}

func TestGateWaitHonorsContext(t *testing.T) {
	gate := harness.NewGate()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, gate.Wait(ctx), context.Canceled)
}

func TestConcurrentlyStartsActorsTogether(t *testing.T) {
	h := fastHarness()
	var running atomic.Int32
	var peak atomic.Int32
	actor := func(context.Context) error {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return nil
	}
	require.NoError(t, h.Concurrently(context.Background(), actor, actor, actor))
	assert.Equal(t, int32(3), peak.Load())
}

func TestConcurrentlyJoinsErrors(t *testing.T) {
	h := fastHarness()
	errA := errors.New("actor a failed")
	errB := errors.New("actor b failed")
	err := h.Concurrently(context.Background(),
		func(context.Context) error { return errA },
		func(context.Context) error { return nil },
		func(context.Context) error { return errB },
	)
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
}

func TestConcurrentlyBoundsDeadlockedActors(t *testing.T) {
	h := harness.New(harness.Config{
		PollInterval: time.Millisecond,
		WaitBound:    30 * time.Millisecond,
		Slack:        time.Millisecond,
	})
	neverOpened := harness.NewGate()
	err := h.Concurrently(context.Background(), func(ctx context.Context) error {
		return neverOpened.Wait(ctx)
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
