package resilience

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// CircuitBreakerContract defines the compliance suite for providers of
// the CircuitBreaker capability. Thresholds are chosen per clause and
// passed through the fixture params, so a provider only has to honor
// them when building the breaker.
func CircuitBreakerContract() *tck.Contract {
	c := tck.NewContract("resilience", "circuit_breaker", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[CircuitBreaker]()},
		Params: []tck.ParamSpec{
			tck.ParamWithDefault[int]("failure_threshold", 3),
			tck.ParamWithDefault[time.Duration]("reset_timeout", time.Second),
		},
	})
	c.Clause("starts_closed_and_passes_through",
		"A fresh breaker is closed and propagates op results.", breakerStartsClosed)
	c.Clause("opens_at_failure_threshold",
		"The breaker opens once consecutive failures reach the threshold.", breakerOpens)
	c.Clause("open_fails_fast",
		"An open breaker returns ErrCircuitOpen without invoking the op.", breakerFailsFast)
	c.Clause("half_open_after_reset_timeout",
		"After the reset timeout an open breaker lets one probe through.", breakerHalfOpen)
	c.Clause("half_open_success_closes",
		"A successful probe in half-open closes the breaker.", breakerRecovers)
	c.Clause("half_open_failure_reopens",
		"A failed probe in half-open reopens the breaker.", breakerReopens)
	return c
}

func breakerEnv(ctx context.Context, tc *tck.TC, threshold int, reset time.Duration) (CircuitBreaker, error) {
	env, err := tc.Env(ctx, tck.Params{
		"failure_threshold": threshold,
		"reset_timeout":     reset,
	})
	if err != nil {
		return nil, err
	}
	return tck.ProviderAs[CircuitBreaker](env)
}

// flakyOp counts invocations and fails the first failures calls.
type flakyOp struct {
	calls    int
	failures int
}

var errOpFailed = errors.New("downstream unavailable")

func (f *flakyOp) run(context.Context) error {
	f.calls++
	if f.calls <= f.failures {
		return errOpFailed
	}
	return nil
}

func tripOpen(ctx context.Context, cb CircuitBreaker, threshold int) error {
	op := &flakyOp{failures: threshold}
	for i := 0; i < threshold; i++ {
		if err := cb.Execute(ctx, op.run); !errors.Is(err, errOpFailed) {
			return fmt.Errorf("failure #%d: expected op error, got %v", i+1, err)
		}
	}
	if got := cb.State(); got != model.CircuitOpen {
		return tck.Violated("state at failure threshold", model.CircuitOpen, got)
	}
	return nil
}

func breakerStartsClosed(ctx context.Context, tc *tck.TC) error {
	cb, err := breakerEnv(ctx, tc, 3, time.Second)
	if err != nil {
		return err
	}
	if got := cb.State(); got != model.CircuitClosed {
		return tck.Violated("initial state", model.CircuitClosed, got)
	}
	var ran bool
	if err := cb.Execute(ctx, func(context.Context) error {
		ran = true
		return nil
	}); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	if !ran {
		return tck.Violated("execute while closed", "op invoked", "op not invoked")
	}
	if got := cb.State(); got != model.CircuitClosed {
		return tck.Violated("state after success", model.CircuitClosed, got)
	}
	return nil
}

func breakerOpens(ctx context.Context, tc *tck.TC) error {
	cb, err := breakerEnv(ctx, tc, 3, time.Second)
	if err != nil {
		return err
	}
	// One failure below the threshold must not open the circuit.
	op := &flakyOp{failures: 2}
	for i := 0; i < 2; i++ {
		if err := cb.Execute(ctx, op.run); !errors.Is(err, errOpFailed) {
			return fmt.Errorf("failure #%d: expected op error, got %v", i+1, err)
		}
	}
	if got := cb.State(); got != model.CircuitClosed {
		return tck.Violated("state below threshold", model.CircuitClosed, got)
	}
	if err := cb.Execute(ctx, func(context.Context) error { return errOpFailed }); !errors.Is(err, errOpFailed) {
		return fmt.Errorf("threshold failure: expected op error, got %v", err)
	}
	if got := cb.State(); got != model.CircuitOpen {
		return tck.Violated("state at threshold", model.CircuitOpen, got)
	}
	return nil
}

func breakerFailsFast(ctx context.Context, tc *tck.TC) error {
	cb, err := breakerEnv(ctx, tc, 2, time.Minute)
	if err != nil {
		return err
	}
	if err := tripOpen(ctx, cb, 2); err != nil {
		return err
	}
	var invoked bool
	err = cb.Execute(ctx, func(context.Context) error {
		invoked = true
		return nil
	})
	if !errors.Is(err, model.ErrCircuitOpen) {
		return tck.Violated("execute while open", model.ErrCircuitOpen, err)
	}
	if invoked {
		return tck.Violated("op while open", "op not invoked", "op invoked")
	}
	return nil
}

func breakerHalfOpen(ctx context.Context, tc *tck.TC) error {
	reset := 500 * time.Millisecond
	cb, err := breakerEnv(ctx, tc, 2, reset)
	if err != nil {
		return err
	}
	if err := tripOpen(ctx, cb, 2); err != nil {
		return err
	}
	h := tc.Harness()
	if err := h.Sleep(ctx, reset+h.Slack()); err != nil {
		return err
	}
	if got := cb.State(); got != model.CircuitHalfOpen {
		return tck.Violated("state after reset timeout", model.CircuitHalfOpen, got)
	}
	return nil
}

func breakerRecovers(ctx context.Context, tc *tck.TC) error {
	reset := 500 * time.Millisecond
	cb, err := breakerEnv(ctx, tc, 2, reset)
	if err != nil {
		return err
	}
	if err := tripOpen(ctx, cb, 2); err != nil {
		return err
	}
	h := tc.Harness()
	if err := h.Sleep(ctx, reset+h.Slack()); err != nil {
		return err
	}
	if err := cb.Execute(ctx, func(context.Context) error { return nil }); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	if got := cb.State(); got != model.CircuitClosed {
		return tck.Violated("state after successful probe", model.CircuitClosed, got)
	}
	// The closed breaker must serve traffic again.
	if err := cb.Execute(ctx, func(context.Context) error { return nil }); err != nil {
		return fmt.Errorf("execute after recovery: %w", err)
	}
	return nil
}

func breakerReopens(ctx context.Context, tc *tck.TC) error {
	reset := 500 * time.Millisecond
	cb, err := breakerEnv(ctx, tc, 2, reset)
	if err != nil {
		return err
	}
	if err := tripOpen(ctx, cb, 2); err != nil {
		return err
	}
	h := tc.Harness()
	if err := h.Sleep(ctx, reset+h.Slack()); err != nil {
		return err
	}
	if err := cb.Execute(ctx, func(context.Context) error { return errOpFailed }); !errors.Is(err, errOpFailed) {
		return fmt.Errorf("failing probe: expected op error, got %v", err)
	}
	if got := cb.State(); got != model.CircuitOpen {
		return tck.Violated("state after failed probe", model.CircuitOpen, got)
	}
	err = cb.Execute(ctx, func(context.Context) error { return nil })
	if !errors.Is(err, model.ErrCircuitOpen) {
		return tck.Violated("execute after reopen", model.ErrCircuitOpen, err)
	}
	return nil
}
