package tck

import (
	"context"
	"fmt"
)

// ClauseFunc is the body of one checkable behavioral assertion. It
// receives a clause context from which it obtains fresh provider
// environments and the timing harness. Returning nil is a PASS; returning
// a *Violation or any other provider-caused error is a FAIL; returning a
// *SetupError (or panicking) is an ERROR.
type ClauseFunc func(ctx context.Context, tc *TC) error

// Clause is one independently addressable assertion within a contract.
// Clauses must not depend on each other's side effects: each one runs
// against environments no other clause has touched, in any order.
type Clause struct {
	Name string
	Doc  string
	Run  ClauseFunc
}

// Contract is a named, versioned bundle of independent clauses plus the
// declared shape of the fixture it requires. Contracts are authored once
// and treated as immutable afterwards.
type Contract struct {
	Domain  string
	Name    string
	Version string

	Requirement Requirement

	clauses []Clause
	names   map[string]struct{}
}

// NewContract starts a contract definition.
func NewContract(domain, name, version string, req Requirement) *Contract {
	return &Contract{
		Domain:      domain,
		Name:        name,
		Version:     version,
		Requirement: req,
		names:       make(map[string]struct{}),
	}
}

// Clause appends a clause and returns the contract for chaining. Duplicate
// or empty clause names panic: they are authoring mistakes and must not
// survive to run time.
func (c *Contract) Clause(name, doc string, fn ClauseFunc) *Contract {
	if name == "" {
		panic(fmt.Sprintf("tck: contract %s: empty clause name", c.ID()))
	}
	if _, dup := c.names[name]; dup {
		panic(fmt.Sprintf("tck: contract %s: duplicate clause %q", c.ID(), name))
	}
	if fn == nil {
		panic(fmt.Sprintf("tck: contract %s: clause %q has no body", c.ID(), name))
	}
	c.names[name] = struct{}{}
	c.clauses = append(c.clauses, Clause{Name: name, Doc: doc, Run: fn})
	return c
}

// Clauses returns the contract's clauses in declaration order.
func (c *Contract) Clauses() []Clause {
	out := make([]Clause, len(c.clauses))
	copy(out, c.clauses)
	return out
}

// ID returns the contract's qualified identity, e.g. "primitives/kv_store".
func (c *Contract) ID() string {
	return c.Domain + "/" + c.Name
}
