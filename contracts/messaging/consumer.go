package messaging

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// ConsumerContract defines the compliance suite for managed consumers.
// It has no capability interface: the provider's consume loop is driven
// entirely through the fixture. The "handler" and "topic" params tell
// the provider what to run, and the "publish" and "dlq_read" artifacts
// feed and probe the loop.
func ConsumerContract() *tck.Contract {
	c := tck.NewContract("messaging", "consumer", "1.0.0", tck.Requirement{
		Params: []tck.ParamSpec{
			tck.Param[Handler]("handler"),
			tck.Param[string]("topic"),
			tck.ParamWithDefault[int]("max_attempts", 3),
		},
		Artifacts: []tck.ArtifactSpec{
			tck.Artifact[PublishFunc]("publish"),
			tck.Artifact[DLQReadFunc]("dlq_read"),
		},
	})
	c.Clause("success_acknowledges_message",
		"A handler returning SUCCESS sees the message exactly once.", consumerSuccess)
	c.Clause("handler_sees_key_and_headers",
		"The handler receives the message key and headers as published.", consumerMetadata)
	c.Clause("retry_triggers_redelivery",
		"A handler returning RETRY receives the same message again.", consumerRetry)
	c.Clause("fail_routes_to_dlq",
		"A handler returning FAIL sends the message to the DLQ intact.", consumerDLQ)
	return c
}

// recorder captures every delivery a handler observes.
type recorder struct {
	mu       sync.Mutex
	messages []model.Message
	outcomes []model.ProcessingOutcome
}

// handler returns a Handler answering outcomes in order; once the list
// is exhausted it answers SUCCESS.
func (r *recorder) handler(outcomes ...model.ProcessingOutcome) Handler {
	return func(_ context.Context, msg model.Message) model.ProcessingOutcome {
		r.mu.Lock()
		defer r.mu.Unlock()
		out := model.OutcomeSuccess
		if len(r.messages) < len(outcomes) {
			out = outcomes[len(r.messages)]
		}
		r.messages = append(r.messages, msg)
		r.outcomes = append(r.outcomes, out)
		return out
	}
}

func (r *recorder) deliveries() []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

func consumerEnv(ctx context.Context, tc *tck.TC, h Handler, topic string, params tck.Params) (PublishFunc, DLQReadFunc, error) {
	merged := tck.Params{"handler": h, "topic": topic}
	for name, v := range params {
		merged[name] = v
	}
	env, err := tc.Env(ctx, merged)
	if err != nil {
		return nil, nil, err
	}
	publish, err := tck.ArtifactAs[PublishFunc](env, "publish")
	if err != nil {
		return nil, nil, err
	}
	dlqRead, err := tck.ArtifactAs[DLQReadFunc](env, "dlq_read")
	if err != nil {
		return nil, nil, err
	}
	return publish, dlqRead, nil
}

func consumerSuccess(ctx context.Context, tc *tck.TC) error {
	rec := &recorder{}
	topic := "tck-topic-" + uuid.NewString()
	publish, _, err := consumerEnv(ctx, tc, rec.handler(), topic, nil)
	if err != nil {
		return err
	}
	payload := []byte(`{"n":1}`)
	if err := publish(ctx, model.Message{Payload: payload}); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	h := tc.Harness()
	if err := h.Await(ctx, receiveBound, "handler invocation", func(context.Context) (bool, error) {
		return len(rec.deliveries()) >= 1, nil
	}); err != nil {
		return err
	}
	// Settle long enough to catch a spurious redelivery.
	if err := h.Sleep(ctx, h.PollInterval()+h.Slack()); err != nil {
		return err
	}
	got := rec.deliveries()
	if len(got) != 1 {
		return tck.Violated("delivery count after SUCCESS", 1, len(got))
	}
	if string(got[0].Payload) != string(payload) {
		return tck.Violated("delivered payload", string(payload), string(got[0].Payload))
	}
	return nil
}

func consumerMetadata(ctx context.Context, tc *tck.TC) error {
	rec := &recorder{}
	topic := "tck-topic-" + uuid.NewString()
	publish, _, err := consumerEnv(ctx, tc, rec.handler(), topic, nil)
	if err != nil {
		return err
	}
	msg := model.Message{
		Payload: []byte("meta"),
		Key:     "key-" + uuid.NewString(),
		Headers: map[string]string{"content-type": "application/json"},
	}
	if err := publish(ctx, msg); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if err := tc.Harness().Await(ctx, receiveBound, "handler invocation", func(context.Context) (bool, error) {
		return len(rec.deliveries()) >= 1, nil
	}); err != nil {
		return err
	}
	got := rec.deliveries()[0]
	if got.Key != msg.Key {
		return tck.Violated("delivered key", msg.Key, got.Key)
	}
	if got.Headers["content-type"] != "application/json" {
		return tck.Violated("delivered header content-type", "application/json", got.Headers["content-type"])
	}
	return nil
}

func consumerRetry(ctx context.Context, tc *tck.TC) error {
	rec := &recorder{}
	topic := "tck-topic-" + uuid.NewString()
	publish, _, err := consumerEnv(ctx, tc, rec.handler(model.OutcomeRetry), topic, nil)
	if err != nil {
		return err
	}
	payload := []byte(`{"retry":true}`)
	if err := publish(ctx, model.Message{Payload: payload}); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if err := tc.Harness().Await(ctx, receiveBound, "redelivery", func(context.Context) (bool, error) {
		return len(rec.deliveries()) >= 2, nil
	}); err != nil {
		return err
	}
	got := rec.deliveries()
	for i := 0; i < 2; i++ {
		if string(got[i].Payload) != string(payload) {
			return tck.Violated(fmt.Sprintf("payload of delivery #%d", i+1), string(payload), string(got[i].Payload))
		}
	}
	return nil
}

func consumerDLQ(ctx context.Context, tc *tck.TC) error {
	rec := &recorder{}
	topic := "tck-topic-" + uuid.NewString()
	publish, dlqRead, err := consumerEnv(ctx, tc,
		rec.handler(model.OutcomeFail, model.OutcomeFail, model.OutcomeFail),
		topic, tck.Params{"max_attempts": 3})
	if err != nil {
		return err
	}
	msg := model.Message{
		Payload: []byte(`{"poison":true}`),
		Key:     "poison-" + uuid.NewString(),
	}
	if err := publish(ctx, msg); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	var dead *model.Message
	if err := tc.Harness().Await(ctx, receiveBound, "message in DLQ", func(ctx context.Context) (bool, error) {
		m, err := dlqRead(ctx)
		if err != nil {
			return false, err
		}
		dead = m
		return m != nil, nil
	}); err != nil {
		return err
	}
	if string(dead.Payload) != string(msg.Payload) {
		return tck.Violated("DLQ payload", string(msg.Payload), string(dead.Payload))
	}
	if dead.Key != msg.Key {
		return tck.Violated("DLQ key", msg.Key, dead.Key)
	}
	return nil
}
