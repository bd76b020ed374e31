// Package harness provides the concurrency and timing primitives that
// clauses use to verify properties not observable from a single
// synchronous call: mutual exclusion between live actors, TTL expiry,
// optimistic-concurrency races, retry redelivery counts and delayed
// delivery windows.
//
// All waits are bounded: a probe that does not succeed within its bound
// resolves to a WaitError carrying the elapsed time and the bound, never
// an indefinite hang. Timing assertions tolerate a configurable slack
// instead of asserting exact durations; the slack, poll interval and
// default wait bound come from Config and can be overridden through the
// environment (TCK_TIMING_SLACK, TCK_POLL_INTERVAL, TCK_WAIT_BOUND).
//
// Actor coordination uses gates (one-shot rendezvous points) rather than
// sleeps, except where real elapsed time is the property under test.
package harness
