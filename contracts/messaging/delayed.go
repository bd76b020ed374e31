package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// DelayedDeliveryContract defines the compliance suite for delayed
// message delivery. Like the consumer contract it certifies behavior
// through artifacts alone: "publish_delayed" schedules a message and
// "receive" observes when it becomes visible.
func DelayedDeliveryContract() *tck.Contract {
	c := tck.NewContract("messaging", "delayed_delivery", "1.0.0", tck.Requirement{
		Artifacts: []tck.ArtifactSpec{
			tck.Artifact[DelayedPublishFunc]("publish_delayed"),
			tck.Artifact[ReceiveFunc]("receive"),
		},
	})
	c.Clause("message_arrives_after_delay",
		"A delayed message is invisible before and visible after its delay.", delayedArrival)
	c.Clause("zero_delay_is_immediate",
		"A zero-delay message is receivable right away.", delayedImmediate)
	c.Clause("delay_preserves_key_and_headers",
		"Key and headers survive the delay queue.", delayedMetadata)
	return c
}

func delayedEnv(ctx context.Context, tc *tck.TC) (DelayedPublishFunc, ReceiveFunc, error) {
	env, err := tc.Env(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	publish, err := tck.ArtifactAs[DelayedPublishFunc](env, "publish_delayed")
	if err != nil {
		return nil, nil, err
	}
	receive, err := tck.ArtifactAs[ReceiveFunc](env, "receive")
	if err != nil {
		return nil, nil, err
	}
	return publish, receive, nil
}

func delayedArrival(ctx context.Context, tc *tck.TC) error {
	publish, receive, err := delayedEnv(ctx, tc)
	if err != nil {
		return err
	}
	h := tc.Harness()
	topic := "tck-delayed-" + uuid.NewString()
	delay := 2 * time.Second

	sw := h.Stopwatch()
	if err := publish(ctx, topic, model.Message{Payload: []byte("later")}, delay); err != nil {
		return fmt.Errorf("publish delayed: %w", err)
	}
	got, err := awaitMessage(ctx, h, receive, topic)
	if err != nil {
		return err
	}
	elapsed := sw.Elapsed()
	if string(got.Payload) != "later" {
		return tck.Violated("delayed payload", "later", string(got.Payload))
	}
	if elapsed < delay {
		return tck.Violated("arrival time", fmt.Sprintf(">= %v after publish", delay), elapsed)
	}
	if limit := delay + receiveBound + h.Slack(); elapsed > limit {
		return tck.Violated("arrival time", fmt.Sprintf("<= %v after publish", limit), elapsed)
	}
	return nil
}

func delayedImmediate(ctx context.Context, tc *tck.TC) error {
	publish, receive, err := delayedEnv(ctx, tc)
	if err != nil {
		return err
	}
	h := tc.Harness()
	topic := "tck-delayed-" + uuid.NewString()

	sw := h.Stopwatch()
	if err := publish(ctx, topic, model.Message{Payload: []byte("now")}, 0); err != nil {
		return fmt.Errorf("publish delayed: %w", err)
	}
	got, err := awaitMessage(ctx, h, receive, topic)
	if err != nil {
		return err
	}
	if elapsed := sw.Elapsed(); elapsed > time.Second+h.Slack() {
		return tck.Violated("zero-delay arrival time", "under a second", elapsed)
	}
	if string(got.Payload) != "now" {
		return tck.Violated("zero-delay payload", "now", string(got.Payload))
	}
	return nil
}

func delayedMetadata(ctx context.Context, tc *tck.TC) error {
	publish, receive, err := delayedEnv(ctx, tc)
	if err != nil {
		return err
	}
	topic := "tck-delayed-" + uuid.NewString()
	msg := model.Message{
		Payload: []byte("meta"),
		Key:     "key-" + uuid.NewString(),
		Headers: map[string]string{"scheduled": "true"},
	}
	if err := publish(ctx, topic, msg, 500*time.Millisecond); err != nil {
		return fmt.Errorf("publish delayed: %w", err)
	}
	got, err := awaitMessage(ctx, tc.Harness(), receive, topic)
	if err != nil {
		return err
	}
	if got.Key != msg.Key {
		return tck.Violated("delayed key", msg.Key, got.Key)
	}
	if got.Headers["scheduled"] != "true" {
		return tck.Violated("delayed header scheduled", "true", got.Headers["scheduled"])
	}
	return nil
}
