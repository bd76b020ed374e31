package harness

import (
	"context"
	"fmt"
	"time"
)

// WaitError reports a bounded wait that expired before its condition was
// observed. It carries the elapsed time and the bound so the verdict can
// localize the failure.
type WaitError struct {
	What    string
	Bound   time.Duration
	Elapsed time.Duration
}

// Error implements the error interface.
func (e *WaitError) Error() string {
	return fmt.Sprintf("timed out waiting for %s: elapsed %s exceeds bound %s",
		e.What, e.Elapsed.Round(time.Millisecond), e.Bound)
}

// Await polls probe until it reports true, the bound expires, or the
// context is canceled. A zero bound uses the configured default. Probe
// errors abort the wait immediately; expiry returns a *WaitError.
func (h *Harness) Await(ctx context.Context, bound time.Duration, what string, probe func(context.Context) (bool, error)) error {
	if bound <= 0 {
		bound = h.cfg.WaitBound
	}
	start := time.Now()
	for {
		ok, err := probe(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		elapsed := time.Since(start)
		if elapsed >= bound {
			return &WaitError{What: what, Bound: bound, Elapsed: elapsed}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.cfg.PollInterval):
		}
	}
}

// Sleep waits for a real elapsed duration. It exists for clauses where
// passing time is the property under test (TTL expiry, delayed delivery);
// it must not be used as a substitute for actor synchronization.
func (h *Harness) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Stopwatch measures elapsed wall-clock time for timing assertions.
type Stopwatch struct {
	start time.Time
}

// Stopwatch starts a new stopwatch.
func (h *Harness) Stopwatch() *Stopwatch {
	return &Stopwatch{start: time.Now()}
}

// Elapsed returns the time since the stopwatch was started.
func (s *Stopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}
