package tck

import (
	"context"
	"fmt"
	"reflect"
)

// Params carries the named arguments passed to a fixture factory. Values
// are merged over the composed requirement's defaults before the factory
// sees them.
type Params map[string]any

// ParamValue extracts a typed parameter. Factories use it to read the
// arguments a clause supplied; a missing or mistyped value is a wiring
// problem and surfaces as an ERROR verdict.
func ParamValue[T any](p Params, name string) (T, error) {
	var zero T
	raw, ok := p[name]
	if !ok {
		return zero, &SetupError{Stage: "params", Err: fmt.Errorf("parameter %q not supplied", name)}
	}
	v, ok := raw.(T)
	if !ok {
		return zero, &SetupError{Stage: "params", Err: fmt.Errorf("parameter %q is %T, want %s", name, raw, reflect.TypeOf((*T)(nil)).Elem())}
	}
	return v, nil
}

// ParamSpec declares one named factory parameter: its static type and an
// optional default applied when a clause does not supply the value.
type ParamSpec struct {
	Name       string
	Type       reflect.Type
	Default    any
	HasDefault bool
}

// Param declares a required parameter of type T.
func Param[T any](name string) ParamSpec {
	return ParamSpec{Name: name, Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// ParamWithDefault declares a parameter of type T with a default value.
func ParamWithDefault[T any](name string, def T) ParamSpec {
	return ParamSpec{Name: name, Type: reflect.TypeOf((*T)(nil)).Elem(), Default: def, HasDefault: true}
}

// ArtifactSpec declares one named artifact the factory returns alongside
// the provider handle: a verification helper such as a dead-letter reader
// or a telemetry fetcher.
type ArtifactSpec struct {
	Name     string
	Type     reflect.Type
	Optional bool
}

// Artifact declares a required artifact of type T.
func Artifact[T any](name string) ArtifactSpec {
	return ArtifactSpec{Name: name, Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// OptionalArtifact declares an artifact of type T a fixture may omit.
func OptionalArtifact[T any](name string) ArtifactSpec {
	return ArtifactSpec{Name: name, Type: reflect.TypeOf((*T)(nil)).Elem(), Optional: true}
}

// Capability returns the reflect.Type of the capability interface T. It
// panics when T is not an interface; that is an authoring mistake, not a
// runtime condition.
func Capability[T any]() reflect.Type {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Interface {
		panic(fmt.Sprintf("tck: capability %s is not an interface", t))
	}
	return t
}

// Requirement is the structural contract a fixture must satisfy: the
// capability interfaces the provider handle must implement, the parameters
// the factory accepts, and the artifacts it returns. Composed contracts
// merge their requirements by union.
type Requirement struct {
	Capabilities []reflect.Type
	Params       []ParamSpec
	Artifacts    []ArtifactSpec
}

// Env is one materialized provider environment: an opaque provider handle,
// the named artifacts the contract declared, and an optional cleanup
// callback the engine invokes exactly once after the clause, regardless of
// verdict.
type Env struct {
	Provider  any
	Artifacts map[string]any
	Cleanup   func(context.Context) error

	cleaned bool
}

// Factory builds a fresh environment from the supplied parameters.
type Factory func(ctx context.Context, params Params) (*Env, error)

// Shape is a fixture's declared structure, checked against the composed
// requirement before any clause runs.
type Shape struct {
	// Provider is the static type of the handle the factory returns. It
	// must implement every capability the composed contracts require.
	Provider reflect.Type

	// Params lists the parameters the factory accepts.
	Params []ParamSpec

	// Artifacts lists the artifacts the factory returns.
	Artifacts []ArtifactSpec
}

// Fixture is the caller-supplied boundary through which a provider is
// injected into a suite.
type Fixture struct {
	Shape Shape

	// New returns a factory scoped to a single clause. Environments
	// obtained from the same factory share backing state (two tenant
	// views over one store, two locks from one lock service), while
	// factories for different clauses are fully isolated.
	New func(ctx context.Context) (Factory, error)
}

// ProviderAs extracts the provider handle as capability T.
func ProviderAs[T any](env *Env) (T, error) {
	p, ok := env.Provider.(T)
	if !ok {
		var zero T
		return zero, &SetupError{Stage: "provider", Err: fmt.Errorf("handle %T does not satisfy %s", env.Provider, reflect.TypeOf((*T)(nil)).Elem())}
	}
	return p, nil
}

// ArtifactAs extracts a named artifact as type T.
func ArtifactAs[T any](env *Env, name string) (T, error) {
	var zero T
	raw, ok := env.Artifacts[name]
	if !ok {
		return zero, &SetupError{Stage: "artifacts", Err: fmt.Errorf("artifact %q not returned by factory", name)}
	}
	v, ok := raw.(T)
	if !ok {
		return zero, &SetupError{Stage: "artifacts", Err: fmt.Errorf("artifact %q is %T, want %s", name, raw, reflect.TypeOf((*T)(nil)).Elem())}
	}
	return v, nil
}
