package memory

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/openomni/tck/contracts/messaging"
	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// Broker is an in-memory topic broker. Each topic is a FIFO queue
// consumed destructively by TryReceive.
type Broker struct {
	mu     sync.Mutex
	topics map[string][]model.Message
}

// NewBroker returns a broker with no topics.
func NewBroker() *Broker {
	return &Broker{topics: make(map[string][]model.Message)}
}

func cloneMessage(msg model.Message) model.Message {
	out := msg
	out.Payload = slices.Clone(msg.Payload)
	if msg.Headers != nil {
		out.Headers = maps.Clone(msg.Headers)
	}
	return out
}

func (b *Broker) publish(topic string, msg model.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics[topic] = append(b.topics[topic], cloneMessage(msg))
}

// TryReceive pops the next message from topic, or returns nil when the
// topic is empty.
func (b *Broker) TryReceive(topic string) *model.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	queue := b.topics[topic]
	if len(queue) == 0 {
		return nil
	}
	msg := queue[0]
	b.topics[topic] = queue[1:]
	return &msg
}

// Producer publishes to a shared Broker. With down set every publish
// fails, modelling an unreachable broker.
type Producer struct {
	broker *Broker
	down   bool
}

func (p *Producer) Publish(_ context.Context, topic string, msg model.Message) error {
	if p.down {
		return model.ErrPublishFailed
	}
	p.broker.publish(topic, msg)
	return nil
}

// ProducerFixture builds a fixture over NewBroker. Envs of one clause
// share the broker; the "broker_down" param makes a handle fail its
// publishes.
func ProducerFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*Producer)(nil)),
			Params: []tck.ParamSpec{
				tck.ParamWithDefault[bool]("broker_down", false),
			},
			Artifacts: []tck.ArtifactSpec{
				tck.Artifact[messaging.ReceiveFunc]("receive"),
			},
		},
		New: func(context.Context) (tck.Factory, error) {
			broker := NewBroker()
			return func(_ context.Context, params tck.Params) (*tck.Env, error) {
				down, err := tck.ParamValue[bool](params, "broker_down")
				if err != nil {
					return nil, err
				}
				receive := messaging.ReceiveFunc(func(_ context.Context, topic string) (*model.Message, error) {
					return broker.TryReceive(topic), nil
				})
				return &tck.Env{
					Provider:  &Producer{broker: broker, down: down},
					Artifacts: map[string]any{"receive": receive},
				}, nil
			}, nil
		},
	}
}

var _ messaging.Producer = (*Producer)(nil)
