package memory_test

import (
	"testing"

	"github.com/openomni/tck/contracts/resilience"
	"github.com/openomni/tck/providers/memory"
)

func TestDistributedLockCertification(t *testing.T) {
	certify(t, resilience.DistributedLockContract(), memory.LockFixture())
}

func TestCircuitBreakerCertification(t *testing.T) {
	certify(t, resilience.CircuitBreakerContract(), memory.BreakerFixture())
}

func TestSagaRepositoryCertification(t *testing.T) {
	certify(t, resilience.SagaRepositoryContract(), memory.SagaFixture())
}

func TestOutboxRepositoryCertification(t *testing.T) {
	certify(t, resilience.OutboxRepositoryContract(), memory.OutboxFixture())
}
