package messaging

import (
	"context"
	"time"

	"github.com/openomni/tck/model"
)

// Producer publishes messages to named topics. A publish that the
// broker cannot accept returns model.ErrPublishFailed.
type Producer interface {
	Publish(ctx context.Context, topic string, msg model.Message) error
}

// Handler processes one delivered message and reports the outcome that
// drives acknowledgement, redelivery, or dead-lettering.
type Handler func(ctx context.Context, msg model.Message) model.ProcessingOutcome

// PublishFunc injects a message into the topic a managed consumer is
// subscribed to. Consumer fixtures expose it as the "publish" artifact.
type PublishFunc func(ctx context.Context, msg model.Message) error

// DLQReadFunc pops the next message from the dead-letter queue, or
// returns (nil, nil) when the queue is empty. Consumer fixtures expose
// it as the "dlq_read" artifact.
type DLQReadFunc func(ctx context.Context) (*model.Message, error)

// ReceiveFunc pops the next message from a topic, or returns (nil, nil)
// when none has arrived yet. Producer and delayed-delivery fixtures
// expose it as the "receive" artifact.
type ReceiveFunc func(ctx context.Context, topic string) (*model.Message, error)

// DelayedPublishFunc publishes a message that must not become
// receivable before delay has elapsed. Delayed-delivery fixtures expose
// it as the "publish_delayed" artifact.
type DelayedPublishFunc func(ctx context.Context, topic string, msg model.Message, delay time.Duration) error
