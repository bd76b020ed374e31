package resilience

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/google/uuid"

	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// OutboxRepositoryContract defines the compliance suite for providers
// of the OutboxRepository capability, centered on per-aggregate gapless
// sequencing.
func OutboxRepositoryContract() *tck.Contract {
	c := tck.NewContract("resilience", "outbox_repository", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[OutboxRepository]()},
	})
	c.Clause("save_and_fetch_pending",
		"A saved event is returned by PendingUnordered with its payload intact.", outboxSaveFetch)
	c.Clause("mark_processed_removes_from_pending",
		"A processed event is no longer pending; marking it again is a no-op.", outboxMarkProcessed)
	c.Clause("aggregate_sequence_is_gapless",
		"Events of one aggregate carry sequence ids 1..K in save order.", outboxSequence)
	c.Clause("aggregates_sequence_independently",
		"Each aggregate gets its own sequence starting at 1.", outboxIndependentSequences)
	c.Clause("concurrent_saves_keep_sequence_gapless",
		"K raced saves for one aggregate still yield sequence ids 1..K.", outboxConcurrentSaves)
	c.Clause("pending_respects_limit",
		"PendingUnordered returns at most limit events.", outboxLimit)
	c.Clause("pending_aggregate_keys_discovered",
		"PendingAggregateKeys lists exactly the aggregates with pending events.", outboxKeys)
	return c
}

func outboxRepo(ctx context.Context, tc *tck.TC) (OutboxRepository, error) {
	env, err := tc.Env(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tck.ProviderAs[OutboxRepository](env)
}

func outboxEvent(agg string, n int) model.OutboxEvent {
	return model.OutboxEvent{
		DestinationTopic: "orders",
		Payload:          []byte(fmt.Sprintf(`{"seq":%d}`, n)),
		MessageKey:       agg,
		AggregateKey:     agg,
	}
}

func outboxSaveFetch(ctx context.Context, tc *tck.TC) error {
	repo, err := outboxRepo(ctx, tc)
	if err != nil {
		return err
	}
	event := model.OutboxEvent{
		DestinationTopic: "orders",
		Payload:          []byte(`{"kind":"created"}`),
		MessageKey:       "order-" + uuid.NewString(),
	}
	if err := repo.SaveEvent(ctx, event); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	pending, err := repo.PendingUnordered(ctx, 10)
	if err != nil {
		return fmt.Errorf("pending: %w", err)
	}
	idx := slices.IndexFunc(pending, func(e model.StoredOutboxEvent) bool {
		return e.MessageKey == event.MessageKey
	})
	if idx < 0 {
		return tck.Violated("pending after save", "saved event listed", "absent")
	}
	got := pending[idx]
	if got.ID == "" {
		return tck.Violated("stored event id", "non-empty id", "empty id")
	}
	if got.Status != model.OutboxPending {
		return tck.Violated("stored event status", model.OutboxPending, got.Status)
	}
	if string(got.Payload) != string(event.Payload) {
		return tck.Violated("stored payload", string(event.Payload), string(got.Payload))
	}
	if got.DestinationTopic != event.DestinationTopic {
		return tck.Violated("stored destination topic", event.DestinationTopic, got.DestinationTopic)
	}
	return nil
}

func outboxMarkProcessed(ctx context.Context, tc *tck.TC) error {
	repo, err := outboxRepo(ctx, tc)
	if err != nil {
		return err
	}
	if err := repo.SaveEvent(ctx, outboxEvent("order-"+uuid.NewString(), 1)); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	pending, err := repo.PendingUnordered(ctx, 10)
	if err != nil {
		return fmt.Errorf("pending: %w", err)
	}
	if len(pending) == 0 {
		return tck.Violated("pending after save", "at least one event", "none")
	}
	target := pending[0]
	if err := repo.MarkProcessed(ctx, target); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	after, err := repo.PendingUnordered(ctx, 10)
	if err != nil {
		return fmt.Errorf("pending after mark: %w", err)
	}
	for _, e := range after {
		if e.ID == target.ID {
			return tck.Violated("pending after mark processed", "event absent", "still pending")
		}
	}

	// Marking the same event again must not error.
	if err := repo.MarkProcessed(ctx, target); err != nil {
		return tck.Violated("repeated mark processed", "no error", err)
	}
	again, err := repo.PendingUnordered(ctx, 10)
	if err != nil {
		return fmt.Errorf("pending after repeated mark: %w", err)
	}
	for _, e := range again {
		if e.ID == target.ID {
			return tck.Violated("pending after repeated mark processed", "event absent", "still pending")
		}
	}
	return nil
}

func outboxSequence(ctx context.Context, tc *tck.TC) error {
	repo, err := outboxRepo(ctx, tc)
	if err != nil {
		return err
	}
	agg := "order-" + uuid.NewString()
	const k = 5
	for i := 1; i <= k; i++ {
		if err := repo.SaveEvent(ctx, outboxEvent(agg, i)); err != nil {
			return fmt.Errorf("save #%d: %w", i, err)
		}
	}
	events, err := repo.PendingForAggregate(ctx, agg)
	if err != nil {
		return fmt.Errorf("pending for aggregate: %w", err)
	}
	if len(events) != k {
		return tck.Violated("event count for aggregate", k, len(events))
	}
	for i, e := range events {
		if e.SequenceID != int64(i+1) {
			return tck.Violated(fmt.Sprintf("sequence id at position %d", i), int64(i+1), e.SequenceID)
		}
		want := fmt.Sprintf(`{"seq":%d}`, i+1)
		if string(e.Payload) != want {
			return tck.Violated(fmt.Sprintf("payload at position %d", i), want, string(e.Payload))
		}
	}
	return nil
}

func outboxIndependentSequences(ctx context.Context, tc *tck.TC) error {
	repo, err := outboxRepo(ctx, tc)
	if err != nil {
		return err
	}
	a := "order-a-" + uuid.NewString()
	b := "order-b-" + uuid.NewString()
	saves := []string{a, a, b, a, b}
	for i, agg := range saves {
		if err := repo.SaveEvent(ctx, outboxEvent(agg, i+1)); err != nil {
			return fmt.Errorf("save #%d: %w", i+1, err)
		}
	}
	check := func(agg string, want int) error {
		events, err := repo.PendingForAggregate(ctx, agg)
		if err != nil {
			return fmt.Errorf("pending for %s: %w", agg, err)
		}
		if len(events) != want {
			return tck.Violated("event count for "+agg, want, len(events))
		}
		for i, e := range events {
			if e.SequenceID != int64(i+1) {
				return tck.Violated(fmt.Sprintf("sequence id for %s at %d", agg, i), int64(i+1), e.SequenceID)
			}
		}
		return nil
	}
	if err := check(a, 3); err != nil {
		return err
	}
	return check(b, 2)
}

func outboxConcurrentSaves(ctx context.Context, tc *tck.TC) error {
	repo, err := outboxRepo(ctx, tc)
	if err != nil {
		return err
	}
	agg := "order-" + uuid.NewString()
	const k = 8
	actors := make([]func(context.Context) error, k)
	for i := range actors {
		n := i + 1
		actors[i] = func(ctx context.Context) error {
			if err := repo.SaveEvent(ctx, outboxEvent(agg, n)); err != nil {
				return fmt.Errorf("save #%d: %w", n, err)
			}
			return nil
		}
	}
	if err := tc.Harness().Concurrently(ctx, actors...); err != nil {
		return err
	}
	events, err := repo.PendingForAggregate(ctx, agg)
	if err != nil {
		return fmt.Errorf("pending for aggregate: %w", err)
	}
	if len(events) != k {
		return tck.Violated("event count after raced saves", k, len(events))
	}
	got := make([]int64, len(events))
	for i, e := range events {
		got[i] = e.SequenceID
	}
	want := make([]int64, k)
	for i := range want {
		want[i] = int64(i + 1)
	}
	if !slices.Equal(got, want) {
		return tck.Violated("sequence ids after raced saves", want, got)
	}
	return nil
}

func outboxLimit(ctx context.Context, tc *tck.TC) error {
	repo, err := outboxRepo(ctx, tc)
	if err != nil {
		return err
	}
	agg := "order-" + uuid.NewString()
	for i := 1; i <= 5; i++ {
		if err := repo.SaveEvent(ctx, outboxEvent(agg, i)); err != nil {
			return fmt.Errorf("save #%d: %w", i, err)
		}
	}
	got, err := repo.PendingUnordered(ctx, 2)
	if err != nil {
		return fmt.Errorf("pending: %w", err)
	}
	if len(got) > 2 {
		return tck.Violated("pending with limit 2", "at most 2 events", len(got))
	}
	return nil
}

func outboxKeys(ctx context.Context, tc *tck.TC) error {
	repo, err := outboxRepo(ctx, tc)
	if err != nil {
		return err
	}
	a := "order-a-" + uuid.NewString()
	b := "order-b-" + uuid.NewString()
	for _, agg := range []string{a, b} {
		if err := repo.SaveEvent(ctx, outboxEvent(agg, 1)); err != nil {
			return fmt.Errorf("save %s: %w", agg, err)
		}
	}
	keys, err := repo.PendingAggregateKeys(ctx)
	if err != nil {
		return fmt.Errorf("pending keys: %w", err)
	}
	if !slices.Contains(keys, a) || !slices.Contains(keys, b) {
		return tck.Violated("pending aggregate keys", []string{a, b}, keys)
	}

	// Draining one aggregate must drop only its key.
	events, err := repo.PendingForAggregate(ctx, a)
	if err != nil {
		return fmt.Errorf("pending for %s: %w", a, err)
	}
	for _, e := range events {
		if err := repo.MarkProcessed(ctx, e); err != nil {
			return fmt.Errorf("mark processed: %w", err)
		}
	}
	keys, err = repo.PendingAggregateKeys(ctx)
	if err != nil {
		return fmt.Errorf("pending keys after drain: %w", err)
	}
	if slices.Contains(keys, a) {
		return tck.Violated("keys after draining aggregate", "drained key absent", keys)
	}
	if !slices.Contains(keys, b) {
		return tck.Violated("keys after draining aggregate", "other key still listed", keys)
	}
	return nil
}
