package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// SagaRepo is a SQLite-backed saga state store. History and payload are
// msgpack blobs; the version check is a conditional UPDATE, so stale
// writers lose the row race rather than a mutex.
type SagaRepo struct {
	store *Store
}

// NewSagaRepo returns a repository over an open store.
func NewSagaRepo(store *Store) *SagaRepo {
	return &SagaRepo{store: store}
}

func (r *SagaRepo) CreateState(ctx context.Context, state model.SagaState) error {
	history, payload, err := packSaga(state)
	if err != nil {
		return err
	}
	_, err = r.store.db.ExecContext(ctx,
		`INSERT INTO saga_states (saga_id, status, current_step, history, payload, version)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		state.SagaID, state.Status, state.CurrentStep, history, payload)
	if err != nil {
		return fmt.Errorf("create saga %q: %w", state.SagaID, err)
	}
	return nil
}

func (r *SagaRepo) GetState(ctx context.Context, id string) (*model.SagaState, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT saga_id, status, current_step, history, payload, version
		 FROM saga_states WHERE saga_id = ?`, id)

	var state model.SagaState
	var history, payload []byte
	err := row.Scan(&state.SagaID, &state.Status, &state.CurrentStep, &history, &payload, &state.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get saga %q: %w", id, err)
	}
	if err := unpackSaga(history, payload, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *SagaRepo) UpdateState(ctx context.Context, state model.SagaState) error {
	history, payload, err := packSaga(state)
	if err != nil {
		return err
	}
	res, err := r.store.db.ExecContext(ctx,
		`UPDATE saga_states
		 SET status = ?, current_step = ?, history = ?, payload = ?, version = version + 1,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE saga_id = ? AND version = ?`,
		state.Status, state.CurrentStep, history, payload, state.SagaID, state.Version)
	if err != nil {
		return fmt.Errorf("update saga %q: %w", state.SagaID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("saga %q version %d is stale: %w", state.SagaID, state.Version, model.ErrConflict)
	}
	return nil
}

func packSaga(state model.SagaState) (history, payload []byte, err error) {
	history, err = msgpack.Marshal(state.History)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal history: %w", err)
	}
	payload, err = msgpack.Marshal(state.Payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal payload: %w", err)
	}
	return history, payload, nil
}

func unpackSaga(history, payload []byte, state *model.SagaState) error {
	if len(history) > 0 {
		if err := msgpack.Unmarshal(history, &state.History); err != nil {
			return fmt.Errorf("unmarshal history: %w", err)
		}
	}
	if len(payload) > 0 {
		if err := msgpack.Unmarshal(payload, &state.Payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	return nil
}

// SagaFixture builds a fixture backed by an ephemeral database, one per
// clause.
func SagaFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*SagaRepo)(nil)),
		},
		New: func(context.Context) (tck.Factory, error) {
			store, err := Open(":memory:")
			if err != nil {
				return nil, err
			}
			var envs int
			return func(context.Context, tck.Params) (*tck.Env, error) {
				envs++
				cleanup := func(context.Context) error { return nil }
				if envs == 1 {
					cleanup = func(context.Context) error { return store.Close() }
				}
				return &tck.Env{Provider: NewSagaRepo(store), Cleanup: cleanup}, nil
			}, nil
		},
	}
}
