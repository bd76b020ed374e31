// Package resilience defines contracts for fault-tolerance building
// blocks: distributed locks, circuit breakers, saga state repositories,
// and transactional outboxes.
//
// The lock and breaker contracts lean heavily on the timing harness;
// running them against a remote provider usually needs a larger slack
// (TCK_TIMING_SLACK) than the default.
package resilience
