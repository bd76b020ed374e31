package primitives

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/openomni/tck/tck"
)

// KVStoreContract defines the compliance suite for any provider exposing
// the KVStore capability.
func KVStoreContract() *tck.Contract {
	c := tck.NewContract("primitives", "kv_store", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[KVStore]()},
	})
	c.Clause("set_and_get_value",
		"A value that has been set can be retrieved.", kvSetAndGet)
	c.Clause("get_missing_key_is_absent",
		"Fetching a key that was never set reports absence.", kvGetMissing)
	c.Clause("set_overwrites_existing_value",
		"Setting an existing key replaces the old value.", kvOverwrite)
	c.Clause("delete_removes_key",
		"A deleted key is no longer retrievable.", kvDelete)
	c.Clause("delete_is_idempotent",
		"Deleting a missing key succeeds and leaves it missing.", kvDeleteIdempotent)
	c.Clause("set_is_idempotent",
		"Repeating the same set leaves the same final state.", kvSetIdempotent)
	return c
}

func kvProvider(ctx context.Context, tc *tck.TC) (KVStore, error) {
	env, err := tc.Env(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tck.ProviderAs[KVStore](env)
}

func present(value string, ok bool) string {
	if !ok {
		return "<absent>"
	}
	return fmt.Sprintf("%q", value)
}

func kvSetAndGet(ctx context.Context, tc *tck.TC) error {
	store, err := kvProvider(ctx, tc)
	if err != nil {
		return err
	}
	key := "tck-key-" + uuid.NewString()
	want := "tck-value-" + uuid.NewString()

	if err := store.Set(ctx, key, want); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	got, ok, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if !ok || got != want {
		return tck.Violated("get after set", fmt.Sprintf("%q", want), present(got, ok))
	}
	return nil
}

func kvGetMissing(ctx context.Context, tc *tck.TC) error {
	store, err := kvProvider(ctx, tc)
	if err != nil {
		return err
	}
	got, ok, err := store.Get(ctx, "missing-key-"+uuid.NewString())
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if ok {
		return tck.Violated("get of missing key", "<absent>", present(got, ok))
	}
	return nil
}

func kvOverwrite(ctx context.Context, tc *tck.TC) error {
	store, err := kvProvider(ctx, tc)
	if err != nil {
		return err
	}
	key := "tck-key-" + uuid.NewString()

	if err := store.Set(ctx, key, "initial-value"); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	if err := store.Set(ctx, key, "overwritten-value"); err != nil {
		return fmt.Errorf("second set: %w", err)
	}
	got, ok, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if !ok || got != "overwritten-value" {
		return tck.Violated("get after overwrite", `"overwritten-value"`, present(got, ok))
	}
	return nil
}

func kvDelete(ctx context.Context, tc *tck.TC) error {
	store, err := kvProvider(ctx, tc)
	if err != nil {
		return err
	}
	key := "tck-key-" + uuid.NewString()

	if err := store.Set(ctx, key, "value-to-be-deleted"); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	got, ok, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if ok {
		return tck.Violated("get after delete", "<absent>", present(got, ok))
	}
	return nil
}

func kvDeleteIdempotent(ctx context.Context, tc *tck.TC) error {
	store, err := kvProvider(ctx, tc)
	if err != nil {
		return err
	}
	key := "missing-key-" + uuid.NewString()

	if err := store.Delete(ctx, key); err != nil {
		return tck.Violated("delete of missing key", "no error", err.Error())
	}
	_, ok, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if ok {
		return tck.Violated("get after idempotent delete", "<absent>", "value present")
	}
	return nil
}

func kvSetIdempotent(ctx context.Context, tc *tck.TC) error {
	store, err := kvProvider(ctx, tc)
	if err != nil {
		return err
	}
	key := "tck-key-" + uuid.NewString()
	want := "tck-value-" + uuid.NewString()

	for i := 0; i < 3; i++ {
		if err := store.Set(ctx, key, want); err != nil {
			return fmt.Errorf("set #%d: %w", i+1, err)
		}
	}
	got, ok, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if !ok || got != want {
		return tck.Violated("get after repeated set", fmt.Sprintf("%q", want), present(got, ok))
	}

	// Repeating the set must not disturb other keys.
	other := "other-key-" + uuid.NewString()
	if err := store.Set(ctx, other, "other-value"); err != nil {
		return fmt.Errorf("set other: %w", err)
	}
	got, ok, err = store.Get(ctx, other)
	if err != nil {
		return fmt.Errorf("get other: %w", err)
	}
	if !ok || got != "other-value" {
		return tck.Violated("get of unrelated key", `"other-value"`, present(got, ok))
	}
	return nil
}
