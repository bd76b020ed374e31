package tck

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"testing"
	"time"

	"github.com/openomni/tck/harness"
)

// TC is the context handed to a running clause. It owns the per-clause
// factory and tracks every environment the clause materializes so the
// engine can release them all exactly once afterwards.
type TC struct {
	factory  Factory
	harness  *harness.Harness
	defaults []ParamSpec

	mu   sync.Mutex
	envs []*Env
}

// Harness returns the timing harness configured for the suite.
func (tc *TC) Harness() *harness.Harness { return tc.harness }

// Env materializes a fresh provider environment. Supplied params are
// merged over the composed defaults; a required parameter with no default
// and no supplied value is a wiring error. Environments from the same
// clause share the factory's backing state.
func (tc *TC) Env(ctx context.Context, params Params) (*Env, error) {
	merged := make(Params, len(tc.defaults)+len(params))
	for _, spec := range tc.defaults {
		if spec.HasDefault {
			merged[spec.Name] = spec.Default
		}
	}
	for k, v := range params {
		merged[k] = v
	}
	for _, spec := range tc.defaults {
		if _, ok := merged[spec.Name]; !ok {
			return nil, &SetupError{Stage: "params", Err: fmt.Errorf("required parameter %q not supplied and has no default", spec.Name)}
		}
	}

	env, err := tc.factory(ctx, merged)
	if err != nil {
		var se *SetupError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, &SetupError{Stage: "factory", Err: err}
	}
	if env == nil {
		return nil, &SetupError{Stage: "factory", Err: errors.New("factory returned nil environment")}
	}
	tc.mu.Lock()
	tc.envs = append(tc.envs, env)
	tc.mu.Unlock()
	return env, nil
}

// release invokes every environment's cleanup exactly once, in reverse
// acquisition order, joining any errors.
func (tc *TC) release(ctx context.Context) error {
	tc.mu.Lock()
	envs := tc.envs
	tc.envs = nil
	tc.mu.Unlock()

	var errs []error
	for i := len(envs) - 1; i >= 0; i-- {
		env := envs[i]
		if env.Cleanup == nil || env.cleaned {
			continue
		}
		env.cleaned = true
		if err := env.Cleanup(ctx); err != nil {
			errs = append(errs, fmt.Errorf("cleanup: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Run executes every clause and aggregates the verdicts. Clauses run with
// the configured parallelism; results keep declaration order regardless.
func (s *Suite) Run(ctx context.Context) *Report {
	results := make([]ClauseResult, len(s.entries))

	if s.parallelism <= 1 {
		for i, e := range s.entries {
			results[i] = s.runClause(ctx, e)
		}
	} else {
		sem := make(chan struct{}, s.parallelism)
		var wg sync.WaitGroup
		for i, e := range s.entries {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, e suiteEntry) {
				defer wg.Done()
				defer func() { <-sem }()
				results[i] = s.runClause(ctx, e)
			}(i, e)
		}
		wg.Wait()
	}

	return &Report{Results: results}
}

// RunT executes the suite under go test, surfacing each clause as a
// subtest named contract/clause.
func (s *Suite) RunT(t *testing.T) {
	t.Helper()
	for _, e := range s.entries {
		t.Run(e.contract.Name+"/"+e.clause.Name, func(t *testing.T) {
			res := s.runClause(context.Background(), e)
			switch res.Status {
			case StatusFail:
				t.Errorf("contract violated: %s", res.Reason)
			case StatusError:
				t.Errorf("harness error: %s", res.Cause)
			}
		})
	}
}

func (s *Suite) runClause(ctx context.Context, e suiteEntry) ClauseResult {
	start := time.Now()
	res := ClauseResult{
		Contract: e.contract.Name,
		Clause:   e.clause.Name,
		Status:   StatusPass,
	}
	log := s.logger.With("contract", e.contract.ID(), "clause", e.clause.Name)
	log.Debug("clause start")

	factory, err := s.fixture.New(ctx)
	if err != nil {
		res.Status = StatusError
		res.Cause = (&SetupError{Stage: "constructor", Err: err}).Error()
		res.Elapsed = time.Since(start)
		return res
	}

	tc := &TC{factory: factory, harness: s.harness, defaults: s.composed.Requirement.Params}
	clauseErr := s.invoke(ctx, e, tc)
	releaseErr := tc.release(ctx)

	switch {
	case clauseErr == nil:
	default:
		var se *SetupError
		if errors.As(clauseErr, &se) {
			res.Status = StatusError
			res.Cause = clauseErr.Error()
		} else {
			res.Status = StatusFail
			res.Reason = clauseErr.Error()
		}
	}
	if releaseErr != nil {
		// A failing cleanup is harness trouble even when the clause
		// itself passed or failed for provider reasons.
		res.Status = StatusError
		if res.Cause != "" {
			res.Cause += "; " + releaseErr.Error()
		} else {
			res.Cause = releaseErr.Error()
		}
	}
	res.Elapsed = time.Since(start)
	log.Debug("clause done", "status", res.Status.String(), "elapsed", res.Elapsed)
	return res
}

// invoke runs the clause body, converting an uncontrolled panic into a
// SetupError so it is classified ERROR rather than tearing down the run.
func (s *Suite) invoke(ctx context.Context, e suiteEntry, tc *TC) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &SetupError{Stage: "clause", Err: fmt.Errorf("panic: %v\n%s", r, debug.Stack())}
		}
	}()
	return e.clause.Run(ctx, tc)
}
