// Package primitives holds the behavioral contracts for foundational
// storage primitives: key-value stores, caches with TTL semantics, secret
// backends, object storage and document databases.
//
// Each contract declares the capability interface a provider must expose
// and the clauses it must satisfy; providers are injected through a
// fixture and never inspected beyond those operations.
package primitives
