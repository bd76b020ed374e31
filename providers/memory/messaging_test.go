package memory_test

import (
	"testing"

	"github.com/openomni/tck/contracts/messaging"
	"github.com/openomni/tck/providers/memory"
)

func TestProducerCertification(t *testing.T) {
	certify(t, messaging.ProducerContract(), memory.ProducerFixture())
}

func TestConsumerCertification(t *testing.T) {
	certify(t, messaging.ConsumerContract(), memory.ConsumerFixture())
}

func TestDelayedDeliveryCertification(t *testing.T) {
	certify(t, messaging.DelayedDeliveryContract(), memory.DelayedFixture())
}
