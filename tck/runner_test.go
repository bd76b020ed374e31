package tck_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openomni/tck/harness"
	"github.com/openomni/tck/tck"
)

// trackingFixture counts environments and cleanups across a run.
type trackingFixture struct {
	mu       sync.Mutex
	envs     int
	cleanups int
	order    []int
}

func (f *trackingFixture) fixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf(pingProvider{}),
			Params:   []tck.ParamSpec{tck.ParamWithDefault[string]("region", "")},
		},
		New: func(context.Context) (tck.Factory, error) {
			return func(context.Context, tck.Params) (*tck.Env, error) {
				f.mu.Lock()
				f.envs++
				id := f.envs
				f.mu.Unlock()
				return &tck.Env{
					Provider: pingProvider{},
					Cleanup: func(context.Context) error {
						f.mu.Lock()
						f.cleanups++
						f.order = append(f.order, id)
						f.mu.Unlock()
						return nil
					},
				}, nil
			}, nil
		},
	}
}

func runOne(t *testing.T, fn tck.ClauseFunc, fixture tck.Fixture, opts ...tck.Option) tck.ClauseResult {
	t.Helper()
	c := tck.NewContract("core", "probe", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[pinger]()},
		Params:       []tck.ParamSpec{tck.ParamWithDefault[string]("region", "local")},
	}).Clause("single", "", fn)

	composed, err := tck.Compose(c)
	require.NoError(t, err)
	suite, err := tck.NewSuite(composed, fixture, opts...)
	require.NoError(t, err)

	report := suite.Run(context.Background())
	require.Len(t, report.Results, 1)
	return report.Results[0]
}

func TestRunClassifiesPass(t *testing.T) {
	tf := &trackingFixture{}
	res := runOne(t, func(ctx context.Context, tc *tck.TC) error {
		env, err := tc.Env(ctx, nil)
		if err != nil {
			return err
		}
		p, err := tck.ProviderAs[pinger](env)
		if err != nil {
			return err
		}
		return p.Ping(ctx)
	}, tf.fixture())

	assert.Equal(t, tck.StatusPass, res.Status)
	assert.Empty(t, res.Reason)
	assert.Empty(t, res.Cause)
	assert.Equal(t, 1, tf.cleanups)
}

func TestRunClassifiesViolationAsFail(t *testing.T) {
	tf := &trackingFixture{}
	res := runOne(t, func(context.Context, *tck.TC) error {
		return tck.Violated("get after set", "value present", "absent")
	}, tf.fixture())

	assert.Equal(t, tck.StatusFail, res.Status)
	assert.Contains(t, res.Reason, "get after set")
}

func TestRunClassifiesWaitExpiryAsFail(t *testing.T) {
	tf := &trackingFixture{}
	fast := harness.New(harness.Config{PollInterval: time.Millisecond, WaitBound: 10 * time.Millisecond, Slack: time.Millisecond})
	res := runOne(t, func(ctx context.Context, tc *tck.TC) error {
		return tc.Harness().Await(ctx, 0, "redelivery", func(context.Context) (bool, error) {
			return false, nil
		})
	}, tf.fixture(), tck.WithHarness(fast))

	assert.Equal(t, tck.StatusFail, res.Status)
	assert.Contains(t, res.Reason, "redelivery")
}

func TestRunClassifiesSetupErrorAsError(t *testing.T) {
	tf := &trackingFixture{}
	res := runOne(t, func(context.Context, *tck.TC) error {
		return &tck.SetupError{Stage: "artifacts", Err: errors.New("dlq reader missing")}
	}, tf.fixture())

	assert.Equal(t, tck.StatusError, res.Status)
	assert.Contains(t, res.Cause, "dlq reader missing")
}

func TestRunClassifiesPanicAsError(t *testing.T) {
	tf := &trackingFixture{}
	res := runOne(t, func(ctx context.Context, tc *tck.TC) error {
		if _, err := tc.Env(ctx, nil); err != nil {
			return err
		}
		panic("clause exploded")
	}, tf.fixture())

	assert.Equal(t, tck.StatusError, res.Status)
	assert.Contains(t, res.Cause, "clause exploded")
	// The env materialized before the panic is still cleaned up.
	assert.Equal(t, 1, tf.cleanups)
}

func TestRunCleansUpEnvsInReverseOrderExactlyOnce(t *testing.T) {
	tf := &trackingFixture{}
	res := runOne(t, func(ctx context.Context, tc *tck.TC) error {
		for i := 0; i < 3; i++ {
			if _, err := tc.Env(ctx, nil); err != nil {
				return err
			}
		}
		return nil
	}, tf.fixture())

	assert.Equal(t, tck.StatusPass, res.Status)
	assert.Equal(t, 3, tf.cleanups)
	assert.Equal(t, []int{3, 2, 1}, tf.order)
}

func TestRunEscalatesCleanupFailureToError(t *testing.T) {
	fixture := tck.Fixture{
		Shape: tck.Shape{Provider: reflect.TypeOf(pingProvider{}), Params: []tck.ParamSpec{tck.ParamWithDefault[string]("region", "")}},
		New: func(context.Context) (tck.Factory, error) {
			return func(context.Context, tck.Params) (*tck.Env, error) {
				return &tck.Env{
					Provider: pingProvider{},
					Cleanup:  func(context.Context) error { return errors.New("teardown leaked") },
				}, nil
			}, nil
		},
	}
	res := runOne(t, func(ctx context.Context, tc *tck.TC) error {
		_, err := tc.Env(ctx, nil)
		return err
	}, fixture)

	assert.Equal(t, tck.StatusError, res.Status)
	assert.Contains(t, res.Cause, "teardown leaked")
}

func TestRunFactoryFailureIsError(t *testing.T) {
	fixture := tck.Fixture{
		Shape: tck.Shape{Provider: reflect.TypeOf(pingProvider{}), Params: []tck.ParamSpec{tck.ParamWithDefault[string]("region", "")}},
		New: func(context.Context) (tck.Factory, error) {
			return func(context.Context, tck.Params) (*tck.Env, error) {
				return nil, errors.New("backend unreachable")
			}, nil
		},
	}
	res := runOne(t, func(ctx context.Context, tc *tck.TC) error {
		_, err := tc.Env(ctx, nil)
		return err
	}, fixture)

	assert.Equal(t, tck.StatusError, res.Status)
	assert.Contains(t, res.Cause, "backend unreachable")
}

func TestRunConstructorFailureIsError(t *testing.T) {
	fixture := tck.Fixture{
		Shape: tck.Shape{Provider: reflect.TypeOf(pingProvider{}), Params: []tck.ParamSpec{tck.ParamWithDefault[string]("region", "")}},
		New: func(context.Context) (tck.Factory, error) {
			return nil, errors.New("container failed to start")
		},
	}
	res := runOne(t, func(context.Context, *tck.TC) error { return nil }, fixture)

	assert.Equal(t, tck.StatusError, res.Status)
	assert.Contains(t, res.Cause, "container failed to start")
}

func TestEnvMergesDefaultsAndOverrides(t *testing.T) {
	var got tck.Params
	fixture := tck.Fixture{
		Shape: tck.Shape{Provider: reflect.TypeOf(pingProvider{}), Params: []tck.ParamSpec{tck.ParamWithDefault[string]("region", "")}},
		New: func(context.Context) (tck.Factory, error) {
			return func(_ context.Context, params tck.Params) (*tck.Env, error) {
				got = params
				return &tck.Env{Provider: pingProvider{}}, nil
			}, nil
		},
	}

	res := runOne(t, func(ctx context.Context, tc *tck.TC) error {
		_, err := tc.Env(ctx, nil)
		return err
	}, fixture)
	require.Equal(t, tck.StatusPass, res.Status)
	assert.Equal(t, "local", got["region"])

	res = runOne(t, func(ctx context.Context, tc *tck.TC) error {
		_, err := tc.Env(ctx, tck.Params{"region": "eu-west-1"})
		return err
	}, fixture)
	require.Equal(t, tck.StatusPass, res.Status)
	assert.Equal(t, "eu-west-1", got["region"])
}

func TestEnvRejectsMissingRequiredParam(t *testing.T) {
	c := tck.NewContract("core", "strict", "1.0.0", tck.Requirement{
		Params: []tck.ParamSpec{tck.Param[string]("token")},
	}).Clause("needs_token", "", func(ctx context.Context, tc *tck.TC) error {
		_, err := tc.Env(ctx, nil)
		return err
	})
	composed, err := tck.Compose(c)
	require.NoError(t, err)

	fixture := tck.Fixture{
		Shape: tck.Shape{Params: []tck.ParamSpec{tck.Param[string]("token")}},
		New: func(context.Context) (tck.Factory, error) {
			return func(context.Context, tck.Params) (*tck.Env, error) {
				return &tck.Env{}, nil
			}, nil
		},
	}
	suite, err := tck.NewSuite(composed, fixture)
	require.NoError(t, err)

	report := suite.Run(context.Background())
	require.Len(t, report.Results, 1)
	assert.Equal(t, tck.StatusError, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Cause, `"token"`)
}

func TestRunParallelKeepsDeclarationOrder(t *testing.T) {
	var calls atomic.Int32
	c := tck.NewContract("core", "many", "1.0.0", tck.Requirement{})
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		c.Clause(name, "", func(context.Context, *tck.TC) error {
			calls.Add(1)
			time.Sleep(time.Millisecond)
			return nil
		})
	}
	composed, err := tck.Compose(c)
	require.NoError(t, err)

	fixture := tck.Fixture{
		New: func(context.Context) (tck.Factory, error) {
			return func(context.Context, tck.Params) (*tck.Env, error) {
				return &tck.Env{}, nil
			}, nil
		},
	}
	suite, err := tck.NewSuite(composed, fixture, tck.WithParallelism(4))
	require.NoError(t, err)

	report := suite.Run(context.Background())
	require.Len(t, report.Results, 6)
	assert.Equal(t, int32(6), calls.Load())
	for i, name := range []string{"a", "b", "c", "d", "e", "f"} {
		assert.Equal(t, name, report.Results[i].Clause)
		assert.Equal(t, tck.StatusPass, report.Results[i].Status)
	}
	assert.True(t, report.Ok())
}

func TestRunIsDeterministicAcrossRuns(t *testing.T) {
	tf := &trackingFixture{}
	c := tck.NewContract("core", "mixed", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[pinger]()},
		Params:       []tck.ParamSpec{tck.ParamWithDefault[string]("region", "local")},
	}).
		Clause("passes", "", func(context.Context, *tck.TC) error { return nil }).
		Clause("fails", "", func(context.Context, *tck.TC) error {
			return tck.Violated("op", "x", "y")
		})
	composed, err := tck.Compose(c)
	require.NoError(t, err)
	suite, err := tck.NewSuite(composed, tf.fixture())
	require.NoError(t, err)

	first := suite.Run(context.Background())
	second := suite.Run(context.Background())

	require.Equal(t, len(first.Results), len(second.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Status, second.Results[i].Status)
		assert.Equal(t, first.Results[i].Reason, second.Results[i].Reason)
	}
	passed, failed, errored := first.Counts()
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 0, errored)
}
