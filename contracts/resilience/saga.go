package resilience

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// SagaRepositoryContract defines the compliance suite for providers of
// the SagaRepository capability, centered on its optimistic concurrency
// guarantee.
func SagaRepositoryContract() *tck.Contract {
	c := tck.NewContract("resilience", "saga_repository", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[SagaRepository]()},
	})
	c.Clause("create_assigns_version_one",
		"A created saga reads back with version 1.", sagaCreate)
	c.Clause("get_missing_is_absent",
		"Getting an unknown saga id returns nil without error.", sagaMissing)
	c.Clause("update_increments_version",
		"Each successful update increments the version by exactly one.", sagaUpdate)
	c.Clause("stale_update_conflicts",
		"An update carrying a stale version fails with ErrConflict.", sagaStaleUpdate)
	c.Clause("concurrent_updates_single_winner",
		"Of two racing updates at the same version exactly one wins.", sagaRace)
	return c
}

func sagaRepo(ctx context.Context, tc *tck.TC) (SagaRepository, error) {
	env, err := tc.Env(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tck.ProviderAs[SagaRepository](env)
}

func newSaga() model.SagaState {
	return model.SagaState{
		SagaID:      "tck-saga-" + uuid.NewString(),
		Status:      "RUNNING",
		CurrentStep: 0,
		History:     []model.SagaStep{{StepName: "reserve", Status: "STARTED"}},
		Payload:     map[string]any{"order_id": uuid.NewString()},
	}
}

func sagaCreate(ctx context.Context, tc *tck.TC) error {
	repo, err := sagaRepo(ctx, tc)
	if err != nil {
		return err
	}
	state := newSaga()
	if err := repo.CreateState(ctx, state); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	got, err := repo.GetState(ctx, state.SagaID)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if got == nil {
		return tck.Violated("get after create", "state present", "absent")
	}
	if got.Version != 1 {
		return tck.Violated("version after create", int64(1), got.Version)
	}
	if got.Status != state.Status {
		return tck.Violated("status after create", state.Status, got.Status)
	}
	if len(got.History) != 1 || got.History[0].StepName != "reserve" {
		return tck.Violated("history after create", state.History, got.History)
	}
	return nil
}

func sagaMissing(ctx context.Context, tc *tck.TC) error {
	repo, err := sagaRepo(ctx, tc)
	if err != nil {
		return err
	}
	got, err := repo.GetState(ctx, "tck-saga-"+uuid.NewString())
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if got != nil {
		return tck.Violated("get unknown id", "nil state", got)
	}
	return nil
}

func sagaUpdate(ctx context.Context, tc *tck.TC) error {
	repo, err := sagaRepo(ctx, tc)
	if err != nil {
		return err
	}
	state := newSaga()
	if err := repo.CreateState(ctx, state); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	cur, err := repo.GetState(ctx, state.SagaID)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	cur.Status = "COMPLETED"
	cur.CurrentStep = 1
	cur.History = append(cur.History, model.SagaStep{StepName: "confirm", Status: "DONE"})
	if err := repo.UpdateState(ctx, *cur); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	got, err := repo.GetState(ctx, state.SagaID)
	if err != nil {
		return fmt.Errorf("get after update: %w", err)
	}
	if got.Version != 2 {
		return tck.Violated("version after update", int64(2), got.Version)
	}
	if got.Status != "COMPLETED" {
		return tck.Violated("status after update", "COMPLETED", got.Status)
	}
	if len(got.History) != 2 {
		return tck.Violated("history length after update", 2, len(got.History))
	}
	return nil
}

func sagaStaleUpdate(ctx context.Context, tc *tck.TC) error {
	repo, err := sagaRepo(ctx, tc)
	if err != nil {
		return err
	}
	state := newSaga()
	if err := repo.CreateState(ctx, state); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	cur, err := repo.GetState(ctx, state.SagaID)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	fresh := *cur
	fresh.Status = "COMPLETED"
	if err := repo.UpdateState(ctx, fresh); err != nil {
		return fmt.Errorf("first update: %w", err)
	}
	stale := *cur
	stale.Status = "FAILED"
	if err := repo.UpdateState(ctx, stale); !errors.Is(err, model.ErrConflict) {
		return tck.Violated("stale update", model.ErrConflict, err)
	}
	got, err := repo.GetState(ctx, state.SagaID)
	if err != nil {
		return fmt.Errorf("get after conflict: %w", err)
	}
	if got.Status != "COMPLETED" {
		return tck.Violated("status after rejected stale update", "COMPLETED", got.Status)
	}
	return nil
}

func sagaRace(ctx context.Context, tc *tck.TC) error {
	repo, err := sagaRepo(ctx, tc)
	if err != nil {
		return err
	}
	state := newSaga()
	if err := repo.CreateState(ctx, state); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	base, err := repo.GetState(ctx, state.SagaID)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}

	var wins, conflicts atomic.Int32
	update := func(status string) func(context.Context) error {
		return func(ctx context.Context) error {
			attempt := *base
			attempt.Status = status
			err := repo.UpdateState(ctx, attempt)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, model.ErrConflict):
				conflicts.Add(1)
			default:
				return fmt.Errorf("update %s: %w", status, err)
			}
			return nil
		}
	}
	if err := tc.Harness().Concurrently(ctx, update("LEFT"), update("RIGHT")); err != nil {
		return err
	}
	if wins.Load() != 1 || conflicts.Load() != 1 {
		return tck.Violated("racing updates at same version",
			"1 winner and 1 conflict",
			fmt.Sprintf("%d winners, %d conflicts", wins.Load(), conflicts.Load()))
	}
	got, err := repo.GetState(ctx, state.SagaID)
	if err != nil {
		return fmt.Errorf("get after race: %w", err)
	}
	if got.Version != 2 {
		return tck.Violated("version after race", int64(2), got.Version)
	}
	return nil
}
