package model

import "fmt"

// CircuitState is the observable state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed admits calls and counts consecutive failures.
	CircuitClosed CircuitState = iota

	// CircuitOpen rejects calls immediately without invoking the wrapped
	// operation.
	CircuitOpen

	// CircuitHalfOpen admits a trial call after the reset timeout elapsed.
	CircuitHalfOpen
)

// String returns the conventional upper-case state name.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "CLOSED"
	case CircuitOpen:
		return "OPEN"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	default:
		return fmt.Sprintf("CircuitState(%d)", int(s))
	}
}

// ProcessingOutcome is the standardized result a message handler reports
// back to the consumer wrapper.
type ProcessingOutcome int

const (
	// OutcomeSuccess acknowledges the message.
	OutcomeSuccess ProcessingOutcome = iota

	// OutcomeRetry requests redelivery of the same message; the consumer
	// must not acknowledge it.
	OutcomeRetry

	// OutcomeFail marks the message unprocessable; after the attempt
	// budget is exhausted it is routed to the dead-letter queue.
	OutcomeFail
)

// String returns the conventional upper-case outcome name.
func (o ProcessingOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeRetry:
		return "RETRY"
	case OutcomeFail:
		return "FAIL"
	default:
		return fmt.Sprintf("ProcessingOutcome(%d)", int(o))
	}
}

// Message is the wire shape delivered to consumer handlers and read back
// from topics and dead-letter queues.
type Message struct {
	Payload []byte
	Key     string
	Headers map[string]string
}

// OutboxEvent is the input shape for saving an event through an outbox
// repository. AggregateKey is optional; when set, the repository assigns a
// per-aggregate sequence id starting at 1.
type OutboxEvent struct {
	DestinationTopic string
	Payload          []byte
	MessageKey       string
	AggregateKey     string
}

// OutboxStatus is the lifecycle status of a stored outbox event.
type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxProcessed OutboxStatus = "processed"
)

// StoredOutboxEvent is an outbox event as persisted by a repository,
// carrying its assigned identity and ordering metadata.
type StoredOutboxEvent struct {
	ID         string
	SequenceID int64
	Status     OutboxStatus
	OutboxEvent
}

// SagaStep records one executed step in a saga's history.
type SagaStep struct {
	StepName string
	Status   string
}

// SagaState is the versioned state of a running saga instance. Version is
// assigned by the repository: 1 after creation, incremented by exactly one
// per successful update. Updates carrying a stale version fail with
// ErrConflict.
type SagaState struct {
	SagaID      string
	Status      string
	CurrentStep int
	History     []SagaStep
	Payload     map[string]any
	Version     int64
}

// Effect is a policy statement effect.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// PolicyStatement is one declarative IAM rule. Action and Resource support
// '*' wildcards; Principal is matched exactly. An explicit deny always
// overrides any allow.
type PolicyStatement struct {
	Effect    Effect `yaml:"effect"`
	Principal string `yaml:"principal"`
	Action    string `yaml:"action"`
	Resource  string `yaml:"resource"`
}

// PolicySet is the declarative configuration an IAM provider enforces.
type PolicySet []PolicyStatement
