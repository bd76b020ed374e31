package tck_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openomni/tck/tck"
)

// pingProvider satisfies pinger but not counter.
type pingProvider struct{}

func (pingProvider) Ping(context.Context) error { return nil }

func staticFixture(shape tck.Shape, env *tck.Env) tck.Fixture {
	return tck.Fixture{
		Shape: shape,
		New: func(context.Context) (tck.Factory, error) {
			return func(context.Context, tck.Params) (*tck.Env, error) {
				return env, nil
			}, nil
		},
	}
}

func TestNewSuiteAcceptsMatchingShape(t *testing.T) {
	composed, err := tck.Compose(pingContract())
	require.NoError(t, err)

	fixture := staticFixture(tck.Shape{
		Provider: reflect.TypeOf(pingProvider{}),
		Params:   []tck.ParamSpec{tck.ParamWithDefault[string]("region", "")},
	}, &tck.Env{Provider: pingProvider{}})

	suite, err := tck.NewSuite(composed, fixture)
	require.NoError(t, err)
	assert.Equal(t, 1, suite.Len())
}

func TestNewSuiteRejectsMissingCapability(t *testing.T) {
	composed, err := tck.Compose(countContract())
	require.NoError(t, err)

	fixture := staticFixture(tck.Shape{
		Provider: reflect.TypeOf(pingProvider{}), // no Count method
		Params:   []tck.ParamSpec{tck.ParamWithDefault[string]("region", "")},
		Artifacts: []tck.ArtifactSpec{
			tck.Artifact[func() int]("probe_count"),
		},
	}, nil)

	_, err = tck.NewSuite(composed, fixture)
	var shapeErr *tck.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Contains(t, shapeErr.Error(), "does not implement")
}

func TestNewSuiteRejectsMissingParam(t *testing.T) {
	composed, err := tck.Compose(pingContract())
	require.NoError(t, err)

	fixture := staticFixture(tck.Shape{
		Provider: reflect.TypeOf(pingProvider{}),
	}, nil)

	_, err = tck.NewSuite(composed, fixture)
	var shapeErr *tck.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Contains(t, shapeErr.Error(), `"region"`)
}

func TestNewSuiteRejectsParamTypeMismatch(t *testing.T) {
	composed, err := tck.Compose(pingContract())
	require.NoError(t, err)

	fixture := staticFixture(tck.Shape{
		Provider: reflect.TypeOf(pingProvider{}),
		Params:   []tck.ParamSpec{tck.Param[int]("region")},
	}, nil)

	_, err = tck.NewSuite(composed, fixture)
	var shapeErr *tck.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Contains(t, shapeErr.Error(), "not assignable")
}

func TestNewSuiteRejectsMissingRequiredArtifact(t *testing.T) {
	composed, err := tck.Compose(countContract())
	require.NoError(t, err)

	fixture := staticFixture(tck.Shape{
		Provider: reflect.TypeOf(countProvider{}),
		Params:   []tck.ParamSpec{tck.ParamWithDefault[string]("region", "")},
	}, nil)

	_, err = tck.NewSuite(composed, fixture)
	var shapeErr *tck.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Contains(t, shapeErr.Error(), `"probe_count"`)
}

func TestNewSuiteToleratesMissingOptionalArtifact(t *testing.T) {
	// pingContract's probe_count artifact is optional.
	composed, err := tck.Compose(pingContract())
	require.NoError(t, err)

	fixture := staticFixture(tck.Shape{
		Provider: reflect.TypeOf(pingProvider{}),
		Params:   []tck.ParamSpec{tck.ParamWithDefault[string]("region", "")},
	}, &tck.Env{Provider: pingProvider{}})

	_, err = tck.NewSuite(composed, fixture)
	require.NoError(t, err)
}

func TestNewSuiteRejectsDegenerateInputs(t *testing.T) {
	composed, err := tck.Compose(pingContract())
	require.NoError(t, err)

	_, err = tck.NewSuite(nil, tck.Fixture{})
	require.Error(t, err)

	_, err = tck.NewSuite(composed, tck.Fixture{}) // no factory constructor
	var shapeErr *tck.ShapeError
	require.ErrorAs(t, err, &shapeErr)
}

type countProvider struct{}

func (countProvider) Count() int { return 0 }
