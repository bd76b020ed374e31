package memory

import (
	"context"
	"sync"
	"time"

	"github.com/openomni/tck/contracts/messaging"
	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// delayScheduler publishes messages to a Broker after a delay using
// wall-clock timers. Cleanup stops timers that have not fired.
type delayScheduler struct {
	broker *Broker

	mu     sync.Mutex
	timers []*time.Timer
}

func (d *delayScheduler) publishAfter(topic string, msg model.Message, delay time.Duration) {
	if delay <= 0 {
		d.broker.publish(topic, msg)
		return
	}
	msg = cloneMessage(msg)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timers = append(d.timers, time.AfterFunc(delay, func() {
		d.broker.publish(topic, msg)
	}))
}

func (d *delayScheduler) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.timers {
		t.Stop()
	}
	d.timers = nil
}

// DelayedFixture builds a fixture for delayed delivery over NewBroker.
func DelayedFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Artifacts: []tck.ArtifactSpec{
				tck.Artifact[messaging.DelayedPublishFunc]("publish_delayed"),
				tck.Artifact[messaging.ReceiveFunc]("receive"),
			},
		},
		New: func(context.Context) (tck.Factory, error) {
			sched := &delayScheduler{broker: NewBroker()}
			return func(context.Context, tck.Params) (*tck.Env, error) {
				publish := messaging.DelayedPublishFunc(func(_ context.Context, topic string, msg model.Message, delay time.Duration) error {
					sched.publishAfter(topic, msg, delay)
					return nil
				})
				receive := messaging.ReceiveFunc(func(_ context.Context, topic string) (*model.Message, error) {
					return sched.broker.TryReceive(topic), nil
				})
				return &tck.Env{
					Artifacts: map[string]any{
						"publish_delayed": publish,
						"receive":         receive,
					},
					Cleanup: func(context.Context) error {
						sched.stop()
						return nil
					},
				}, nil
			}, nil
		},
	}
}
