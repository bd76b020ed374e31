package memory

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/openomni/tck/contracts/resilience"
	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// OutboxRepo is an in-memory outbox with a per-aggregate sequence
// counter. Events without an aggregate key get no sequence id.
type OutboxRepo struct {
	mu     sync.Mutex
	events []model.StoredOutboxEvent
	seqs   map[string]int64
}

// NewOutboxRepo returns an empty repository.
func NewOutboxRepo() *OutboxRepo {
	return &OutboxRepo{seqs: make(map[string]int64)}
}

func (r *OutboxRepo) SaveEvent(_ context.Context, event model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := model.StoredOutboxEvent{
		ID:          uuid.NewString(),
		Status:      model.OutboxPending,
		OutboxEvent: event,
	}
	stored.Payload = slices.Clone(event.Payload)
	if event.AggregateKey != "" {
		r.seqs[event.AggregateKey]++
		stored.SequenceID = r.seqs[event.AggregateKey]
	}
	r.events = append(r.events, stored)
	return nil
}

func (r *OutboxRepo) PendingUnordered(_ context.Context, limit int) ([]model.StoredOutboxEvent, error) {
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

func (r *OutboxRepo) PendingForAggregate(_ context.Context, aggregateKey string) ([]model.StoredOutboxEvent, error) {
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

func (r *OutboxRepo) PendingAggregateKeys(_ context.Context) ([]string, error) {
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

func (r *OutboxRepo) MarkProcessed(_ context.Context, event model.StoredOutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].ID == event.ID {
			r.events[i].Status = model.OutboxProcessed
			return nil
		}
	}
	return fmt.Errorf("outbox event %q not found", event.ID)
}

// OutboxFixture builds a fixture over NewOutboxRepo, one repository per
// clause.
func OutboxFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*OutboxRepo)(nil)),
		},
		New: func(context.Context) (tck.Factory, error) {
			repo := NewOutboxRepo()
			return func(context.Context, tck.Params) (*tck.Env, error) {
				return &tck.Env{Provider: repo}, nil
			}, nil
		},
	}
}

var _ resilience.OutboxRepository = (*OutboxRepo)(nil)
