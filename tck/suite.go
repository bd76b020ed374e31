package tck

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/openomni/tck/harness"
)

// Suite is the executable result of binding a composed contract set to one
// concrete fixture: a flattened list of (contract, clause) pairs whose
// fixture shape has already been validated.
type Suite struct {
	composed *Composed
	fixture  Fixture
	entries  []suiteEntry

	harness     *harness.Harness
	parallelism int
	logger      *slog.Logger
}

type suiteEntry struct {
	contract *Contract
	clause   Clause
}

// Option configures a suite.
type Option func(*Suite)

// WithHarness substitutes the timing harness used by clauses.
func WithHarness(h *harness.Harness) Option {
	return func(s *Suite) { s.harness = h }
}

// WithParallelism sets how many clauses may run concurrently. Clauses are
// independent and side-effect-isolated per fresh environment, so any
// degree of parallelism is safe; the default is sequential execution.
func WithParallelism(n int) Option {
	return func(s *Suite) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithLogger sets the runner's logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Suite) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSuite validates the fixture's declared shape against the composed
// requirement and materializes the executable suite. Validation is
// fail-fast: an incompatible fixture is rejected here, before any clause
// runs, with a *ShapeError naming the first incompatibility.
func NewSuite(composed *Composed, fixture Fixture, opts ...Option) (*Suite, error) {
	if composed == nil || len(composed.Contracts) == 0 {
		return nil, &ShapeError{Detail: "no contracts to run"}
	}
	if fixture.New == nil {
		return nil, &ShapeError{Detail: "fixture has no factory constructor"}
	}
	if err := validateShape(composed.Requirement, fixture.Shape); err != nil {
		return nil, err
	}

	s := &Suite{
		composed:    composed,
		fixture:     fixture,
		harness:     harness.New(harness.Default()),
		parallelism: 1,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, c := range composed.Contracts {
		for _, cl := range c.clauses {
			s.entries = append(s.entries, suiteEntry{contract: c, clause: cl})
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Len reports the number of clauses the suite will execute.
func (s *Suite) Len() int { return len(s.entries) }

// validateShape checks that the fixture's declared shape is a superset of
// the union requirement.
func validateShape(req Requirement, shape Shape) error {
	for _, cap := range req.Capabilities {
		if shape.Provider == nil {
			return &ShapeError{Detail: fmt.Sprintf("no provider type declared, capability %s required", cap)}
		}
		if !shape.Provider.Implements(cap) {
			return &ShapeError{Detail: fmt.Sprintf("provider %s does not implement required capability %s", shape.Provider, cap)}
		}
	}

	declaredParams := make(map[string]ParamSpec, len(shape.Params))
	for _, p := range shape.Params {
		declaredParams[p.Name] = p
	}
	for _, p := range req.Params {
		decl, ok := declaredParams[p.Name]
		if !ok {
			return &ShapeError{Detail: fmt.Sprintf("factory does not accept required parameter %q (%s)", p.Name, p.Type)}
		}
		if !p.Type.AssignableTo(decl.Type) {
			return &ShapeError{Detail: fmt.Sprintf("parameter %q: required type %s not assignable to declared type %s", p.Name, p.Type, decl.Type)}
		}
	}

	declaredArtifacts := make(map[string]ArtifactSpec, len(shape.Artifacts))
	for _, a := range shape.Artifacts {
		declaredArtifacts[a.Name] = a
	}
	for _, a := range req.Artifacts {
		decl, ok := declaredArtifacts[a.Name]
		if !ok {
			if a.Optional {
				continue
			}
			return &ShapeError{Detail: fmt.Sprintf("factory does not return required artifact %q (%s)", a.Name, a.Type)}
		}
		if !decl.Type.AssignableTo(a.Type) {
			return &ShapeError{Detail: fmt.Sprintf("artifact %q: declared type %s not assignable to required type %s", a.Name, decl.Type, a.Type)}
		}
	}
	return nil
}
