// Package memory implements in-process reference providers for every
// contract in the catalogue. They are the executable answer key: each
// fixture here passes its contract, so a failing run against a real
// system points at the system, not the suite.
//
// All providers are safe for concurrent use; the concurrency clauses
// exercise them from multiple goroutines.
package memory
