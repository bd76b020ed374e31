// Package tck implements the behavioral-contract verification engine.
//
// A Contract is a named, versioned bundle of independent clauses together
// with the Requirement its fixture must satisfy: the capability interfaces
// the provider under test must implement, the named parameters the factory
// accepts, and the named artifacts it returns. Contracts are composed with
// Compose (one primitive contract plus any number of policy contracts),
// which unions their requirements and rejects conflicting declarations
// before anything runs.
//
// A Fixture is the caller's side of the protocol: a declared Shape plus a
// constructor producing a per-clause factory. NewSuite validates the shape
// against the composed requirement up front (compose, then validate, then
// run), so an incompatible fixture fails fast instead of failing one
// clause at a time.
//
// Execution gives every clause a fresh provider environment; cleanup
// callbacks are invoked exactly once per environment on every exit path,
// including panics and expired waits. Verdicts distinguish FAIL (the
// provider violates the contract) from ERROR (the fixture or harness could
// not complete), and the resulting Report is keyed by contract and clause
// name.
package tck
