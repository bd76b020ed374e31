// Package policy defines cross-cutting contracts that compose onto a
// primary contract rather than standing alone. MultiTenancyContract is
// the canonical example: composed with the kv_store contract it adds
// isolation clauses over the same KVStore capability.
package policy
