// Package messaging defines contracts for producers, managed consumers,
// and delayed delivery.
//
// The consumer contract is unusual in that it certifies behavior rather
// than an interface: the provider wires a caller-supplied handler into
// its consume loop, and the clauses publish through an artifact and
// observe what the handler saw. Providers expose the loop's inputs and
// probes as fixture artifacts instead of capability methods.
package messaging
