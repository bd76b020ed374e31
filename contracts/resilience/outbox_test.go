package resilience_test

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openomni/tck/contracts/resilience"
	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// fakeOutboxRepo is a minimal in-memory outbox with two switchable
// defects: seqWindow drops the lock between reading and writing the
// sequence counter, and strictMark rejects marking an event that is
// already processed.
type fakeOutboxRepo struct {
	mu         sync.Mutex
	events     []model.StoredOutboxEvent
	seqs       map[string]int64
	nextID     int
	seqWindow  time.Duration
	strictMark bool
}

func (r *fakeOutboxRepo) SaveEvent(_ context.Context, event model.OutboxEvent) error {
	var seq int64
	if event.AggregateKey != "" {
		r.mu.Lock()
		seq = r.seqs[event.AggregateKey] + 1
		if r.seqWindow > 0 {
			r.mu.Unlock()
			time.Sleep(r.seqWindow)
			r.mu.Lock()
		}
		r.seqs[event.AggregateKey] = seq
		r.mu.Unlock()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.events = append(r.events, model.StoredOutboxEvent{
		ID:          fmt.Sprintf("evt-%d", r.nextID),
		SequenceID:  seq,
		Status:      model.OutboxPending,
		OutboxEvent: event,
	})
	return nil
}

func (r *fakeOutboxRepo) PendingUnordered(_ context.Context, limit int) ([]model.StoredOutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StoredOutboxEvent
	for _, e := range r.events {
		if e.Status != model.OutboxPending {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) PendingForAggregate(_ context.Context, aggregateKey string) ([]model.StoredOutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StoredOutboxEvent
	for _, e := range r.events {
		if e.Status == model.OutboxPending && e.AggregateKey == aggregateKey {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b model.StoredOutboxEvent) int {
		return int(a.SequenceID - b.SequenceID)
	})
	return out, nil
}

func (r *fakeOutboxRepo) PendingAggregateKeys(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var keys []string
	for _, e := range r.events {
		if e.Status != model.OutboxPending || e.AggregateKey == "" || seen[e.AggregateKey] {
			continue
		}
		seen[e.AggregateKey] = true
		keys = append(keys, e.AggregateKey)
	}
	return keys, nil
}

func (r *fakeOutboxRepo) MarkProcessed(_ context.Context, event model.StoredOutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].ID != event.ID {
			continue
		}
		if r.strictMark && r.events[i].Status == model.OutboxProcessed {
			return fmt.Errorf("outbox event %q already processed", event.ID)
		}
		r.events[i].Status = model.OutboxProcessed
		return nil
	}
	return fmt.Errorf("outbox event %q not found", event.ID)
}

func outboxFixture(build func() *fakeOutboxRepo) tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{Provider: reflect.TypeOf((*fakeOutboxRepo)(nil))},
		New: func(context.Context) (tck.Factory, error) {
			repo := build()
			return func(context.Context, tck.Params) (*tck.Env, error) {
				return &tck.Env{Provider: repo}, nil
			}, nil
		},
	}
}

func TestConcurrentSavesClauseRejectsRacySequencing(t *testing.T) {
	fixture := outboxFixture(func() *fakeOutboxRepo {
		return &fakeOutboxRepo{seqs: make(map[string]int64), seqWindow: 10 * time.Millisecond}
	})
	report := verdicts(t, resilience.OutboxRepositoryContract(), fixture)

	res, ok := report.Result("outbox_repository", "concurrent_saves_keep_sequence_gapless")
	require.True(t, ok)
	assert.Equal(t, tck.StatusFail, res.Status)
	assert.Contains(t, res.Reason, "raced saves")

	// Sequential saves never hit the window, so the ordered clause
	// alone does not expose the defect.
	res, ok = report.Result("outbox_repository", "aggregate_sequence_is_gapless")
	require.True(t, ok)
	assert.Equal(t, tck.StatusPass, res.Status)
}

func TestMarkProcessedClauseRejectsNonIdempotentMark(t *testing.T) {
	fixture := outboxFixture(func() *fakeOutboxRepo {
		return &fakeOutboxRepo{seqs: make(map[string]int64), strictMark: true}
	})
	report := verdicts(t, resilience.OutboxRepositoryContract(), fixture)

	res, ok := report.Result("outbox_repository", "mark_processed_removes_from_pending")
	require.True(t, ok)
	assert.Equal(t, tck.StatusFail, res.Status)
	assert.Contains(t, res.Reason, "repeated mark processed")
}
