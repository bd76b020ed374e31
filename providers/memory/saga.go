package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/openomni/tck/contracts/resilience"
	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// SagaRepo is an in-memory saga state store with optimistic locking.
type SagaRepo struct {
	mu     sync.Mutex
	states map[string]model.SagaState
}

// NewSagaRepo returns an empty repository.
func NewSagaRepo() *SagaRepo {
	return &SagaRepo{states: make(map[string]model.SagaState)}
}

func cloneSaga(s model.SagaState) model.SagaState {
	out := s
	out.History = append([]model.SagaStep(nil), s.History...)
	if s.Payload != nil {
		out.Payload = make(map[string]any, len(s.Payload))
		for k, v := range s.Payload {
			out.Payload[k] = v
		}
	}
	return out
}

func (r *SagaRepo) CreateState(_ context.Context, state model.SagaState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.states[state.SagaID]; ok {
		return fmt.Errorf("saga %q already exists: %w", state.SagaID, model.ErrConflict)
	}
	stored := cloneSaga(state)
	stored.Version = 1
	r.states[state.SagaID] = stored
	return nil
}

func (r *SagaRepo) GetState(_ context.Context, id string) (*model.SagaState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[id]
	if !ok {
		return nil, nil
	}
	out := cloneSaga(state)
	return &out, nil
}

func (r *SagaRepo) UpdateState(_ context.Context, state model.SagaState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.states[state.SagaID]
	if !ok {
		return fmt.Errorf("saga %q not found: %w", state.SagaID, model.ErrConflict)
	}
	if stored.Version != state.Version {
		return fmt.Errorf("saga %q at version %d, update carried %d: %w",
			state.SagaID, stored.Version, state.Version, model.ErrConflict)
	}
	next := cloneSaga(state)
	next.Version = stored.Version + 1
	r.states[state.SagaID] = next
	return nil
}

// SagaFixture builds a fixture over NewSagaRepo, one repository per
// clause.
func SagaFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*SagaRepo)(nil)),
		},
		New: func(context.Context) (tck.Factory, error) {
			repo := NewSagaRepo()
			return func(context.Context, tck.Params) (*tck.Env, error) {
				return &tck.Env{Provider: repo}, nil
			}, nil
		},
	}
}

var _ resilience.SagaRepository = (*SagaRepo)(nil)
