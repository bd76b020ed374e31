package tck

import (
	"fmt"
	"reflect"
)

// Violation is a structured contract violation: the provider behaved
// observably differently from what the clause requires. A clause returning
// a *Violation (or any other non-setup error) yields a FAIL verdict.
type Violation struct {
	// Op names the operation or property being checked.
	Op string

	// Expected and Observed describe the mismatch in human-readable form.
	Expected string
	Observed string
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return fmt.Sprintf("%s: expected %s, observed %s", v.Op, v.Expected, v.Observed)
}

// Violated builds a Violation from arbitrary expected/observed values.
func Violated(op string, expected, observed any) *Violation {
	return &Violation{
		Op:       op,
		Expected: fmt.Sprintf("%v", expected),
		Observed: fmt.Sprintf("%v", observed),
	}
}

// SetupError marks a failure of the test wiring itself (the fixture
// factory, a missing or mistyped artifact, a panicking clause) as opposed
// to provider misbehavior. It yields an ERROR verdict so reports can
// separate "your provider is wrong" from "your harness is wrong".
type SetupError struct {
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	return fmt.Sprintf("fixture %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SetupError) Unwrap() error { return e.Err }

// ConflictError reports that two composed contracts declare the same
// fixture parameter or artifact with incompatible types. It is produced at
// composition time, before any clause runs.
type ConflictError struct {
	Kind       string // "parameter" or "artifact"
	Name       string
	First      string // contract id of the first declaration
	Second     string // contract id of the conflicting declaration
	FirstType  reflect.Type
	SecondType reflect.Type
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("composition conflict: %s %q declared as %s by %s but as %s by %s",
		e.Kind, e.Name, e.FirstType, e.First, e.SecondType, e.Second)
}

// ShapeError reports that a supplied fixture's declared shape is not a
// superset of the composed requirement. It is produced by NewSuite, before
// any clause runs.
type ShapeError struct {
	Detail string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return "fixture shape: " + e.Detail
}
