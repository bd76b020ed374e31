package messaging

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/openomni/tck/harness"
	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

const receiveBound = 5 * time.Second

// ProducerContract defines the compliance suite for providers of the
// Producer capability. The fixture must expose a "receive" artifact
// that reads back what the producer published.
func ProducerContract() *tck.Contract {
	c := tck.NewContract("messaging", "producer", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[Producer]()},
		Params: []tck.ParamSpec{
			tck.ParamWithDefault[bool]("broker_down", false),
		},
		Artifacts: []tck.ArtifactSpec{
			tck.Artifact[ReceiveFunc]("receive"),
		},
	})
	c.Clause("publish_delivers_payload",
		"A published payload is receivable on the topic.", producerDelivers)
	c.Clause("publish_preserves_key_and_headers",
		"Message key and headers survive the broker round trip.", producerMetadata)
	c.Clause("broker_down_reports_publish_failed",
		"Publishing to an unreachable broker returns ErrPublishFailed.", producerBrokerDown)
	return c
}

func producerEnv(ctx context.Context, tc *tck.TC, params tck.Params) (Producer, ReceiveFunc, error) {
	env, err := tc.Env(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	p, err := tck.ProviderAs[Producer](env)
	if err != nil {
		return nil, nil, err
	}
	receive, err := tck.ArtifactAs[ReceiveFunc](env, "receive")
	if err != nil {
		return nil, nil, err
	}
	return p, receive, nil
}

// awaitMessage polls receive until a message arrives on topic.
func awaitMessage(ctx context.Context, h *harness.Harness, receive ReceiveFunc, topic string) (*model.Message, error) {
	var got *model.Message
	err := h.Await(ctx, receiveBound, "message on "+topic, func(ctx context.Context) (bool, error) {
		msg, err := receive(ctx, topic)
		if err != nil {
			return false, err
		}
		got = msg
		return msg != nil, nil
	})
	return got, err
}

func producerDelivers(ctx context.Context, tc *tck.TC) error {
	p, receive, err := producerEnv(ctx, tc, nil)
	if err != nil {
		return err
	}
	topic := "tck-topic-" + uuid.NewString()
	payload := []byte(`{"event":"` + uuid.NewString() + `"}`)

	if err := p.Publish(ctx, topic, model.Message{Payload: payload}); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	got, err := awaitMessage(ctx, tc.Harness(), receive, topic)
	if err != nil {
		return err
	}
	if string(got.Payload) != string(payload) {
		return tck.Violated("received payload", string(payload), string(got.Payload))
	}
	return nil
}

func producerMetadata(ctx context.Context, tc *tck.TC) error {
	p, receive, err := producerEnv(ctx, tc, nil)
	if err != nil {
		return err
	}
	topic := "tck-topic-" + uuid.NewString()
	msg := model.Message{
		Payload: []byte("with-metadata"),
		Key:     "partition-" + uuid.NewString(),
		Headers: map[string]string{"trace_id": uuid.NewString(), "source": "tck"},
	}
	if err := p.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	got, err := awaitMessage(ctx, tc.Harness(), receive, topic)
	if err != nil {
		return err
	}
	if got.Key != msg.Key {
		return tck.Violated("received key", msg.Key, got.Key)
	}
	for name, want := range msg.Headers {
		if got.Headers[name] != want {
			return tck.Violated("received header "+name, want, got.Headers[name])
		}
	}
	return nil
}

func producerBrokerDown(ctx context.Context, tc *tck.TC) error {
	p, _, err := producerEnv(ctx, tc, tck.Params{"broker_down": true})
	if err != nil {
		return err
	}
	err = p.Publish(ctx, "tck-topic-"+uuid.NewString(), model.Message{Payload: []byte("doomed")})
	if !errors.Is(err, model.ErrPublishFailed) {
		return tck.Violated("publish with broker down", model.ErrPublishFailed, err)
	}
	return nil
}
