package memory

import (
	"context"
	"time"

	"github.com/openomni/tck/contracts/messaging"
	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

const consumerPoll = 10 * time.Millisecond

// Consumer is a managed consume loop over a Broker topic. Every
// received message is handed to the wired handler; RETRY outcomes
// redeliver the message until the attempt budget is spent, FAIL
// outcomes dead-letter it immediately, and spent budgets dead-letter
// it too.
type Consumer struct {
	broker      *Broker
	topic       string
	dlqTopic    string
	handler     messaging.Handler
	maxAttempts int

	cancel context.CancelFunc
	done   chan struct{}
}

func startConsumer(broker *Broker, topic string, handler messaging.Handler, maxAttempts int) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		broker:      broker,
		topic:       topic,
		dlqTopic:    topic + ".dlq",
		handler:     handler,
		maxAttempts: maxAttempts,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	go c.loop(ctx)
	return c
}

func (c *Consumer) loop(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(consumerPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		msg := c.broker.TryReceive(c.topic)
		if msg == nil {
			continue
		}
		c.deliver(ctx, *msg)
	}
}

func (c *Consumer) deliver(ctx context.Context, msg model.Message) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		switch c.handler(ctx, msg) {
		case model.OutcomeSuccess:
			return
		case model.OutcomeFail:
			c.broker.publish(c.dlqTopic, msg)
			return
		case model.OutcomeRetry:
			select {
			case <-ctx.Done():
				return
			case <-time.After(consumerPoll):
			}
		}
	}
	// Retry budget spent.
	c.broker.publish(c.dlqTopic, msg)
}

func (c *Consumer) stop() {
	c.cancel()
	<-c.done
}

// ConsumerFixture builds a fixture that starts one consume loop per
// environment, wired to the clause's handler and topic. Cleanup stops
// the loop.
func ConsumerFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Params: []tck.ParamSpec{
				tck.Param[messaging.Handler]("handler"),
				tck.Param[string]("topic"),
				tck.ParamWithDefault[int]("max_attempts", 3),
			},
			Artifacts: []tck.ArtifactSpec{
				tck.Artifact[messaging.PublishFunc]("publish"),
				tck.Artifact[messaging.DLQReadFunc]("dlq_read"),
			},
		},
		New: func(context.Context) (tck.Factory, error) {
			broker := NewBroker()
			return func(_ context.Context, params tck.Params) (*tck.Env, error) {
				handler, err := tck.ParamValue[messaging.Handler](params, "handler")
				if err != nil {
					return nil, err
				}
				topic, err := tck.ParamValue[string](params, "topic")
				if err != nil {
					return nil, err
				}
				maxAttempts, err := tck.ParamValue[int](params, "max_attempts")
				if err != nil {
					return nil, err
				}
				consumer := startConsumer(broker, topic, handler, maxAttempts)

				publish := messaging.PublishFunc(func(_ context.Context, msg model.Message) error {
					broker.publish(topic, msg)
					return nil
				})
				dlqRead := messaging.DLQReadFunc(func(context.Context) (*model.Message, error) {
					return broker.TryReceive(consumer.dlqTopic), nil
				})
				return &tck.Env{
					Provider: consumer,
					Artifacts: map[string]any{
						"publish":  publish,
						"dlq_read": dlqRead,
					},
					Cleanup: func(context.Context) error {
						consumer.stop()
						return nil
					},
				}, nil
			}, nil
		},
	}
}
