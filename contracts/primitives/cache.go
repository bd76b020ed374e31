package primitives

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/openomni/tck/tck"
)

// shortTTL is the expiry used by clauses that wait for real time to pass.
// Kept short so the whole contract stays fast; the harness slack absorbs
// scheduling overshoot.
const shortTTL = 500 * time.Millisecond

// CacheContract defines the compliance suite for any provider exposing
// the Cache capability, with particular attention to TTL expiry.
func CacheContract() *tck.Contract {
	c := tck.NewContract("primitives", "cache", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[Cache]()},
	})
	c.Clause("set_and_get_without_ttl",
		"A value stored without TTL persists and can be retrieved.", cacheSetAndGet)
	c.Clause("get_missing_key_is_a_miss",
		"Fetching a key that was never stored is a cache miss.", cacheMiss)
	c.Clause("get_before_expiry",
		"A value with a TTL is retrievable before the TTL elapses.", cacheGetBeforeExpiry)
	c.Clause("key_expires_after_ttl",
		"A value is gone once its TTL has elapsed.", cacheExpiry)
	c.Clause("delete_removes_key_before_expiry",
		"An explicit delete removes a key even while its TTL is live.", cacheDelete)
	c.Clause("set_overwrites_value_and_ttl",
		"Re-setting a key replaces both the value and the TTL.", cacheOverwriteResetsTTL)
	return c
}

func cacheProvider(ctx context.Context, tc *tck.TC) (Cache, error) {
	env, err := tc.Env(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tck.ProviderAs[Cache](env)
}

func cacheSetAndGet(ctx context.Context, tc *tck.TC) error {
	cache, err := cacheProvider(ctx, tc)
	if err != nil {
		return err
	}
	key := "tck-key-" + uuid.NewString()
	want := "tck-value-" + uuid.NewString()

	if err := cache.Set(ctx, key, want, 0); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	got, ok, err := cache.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if !ok || got != want {
		return tck.Violated("get after set without ttl", fmt.Sprintf("%q", want), present(got, ok))
	}
	return nil
}

func cacheMiss(ctx context.Context, tc *tck.TC) error {
	cache, err := cacheProvider(ctx, tc)
	if err != nil {
		return err
	}
	got, ok, err := cache.Get(ctx, "missing-key-"+uuid.NewString())
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if ok {
		return tck.Violated("get of missing key", "cache miss", present(got, ok))
	}
	return nil
}

func cacheGetBeforeExpiry(ctx context.Context, tc *tck.TC) error {
	cache, err := cacheProvider(ctx, tc)
	if err != nil {
		return err
	}
	key := "tck-key-" + uuid.NewString()

	if err := cache.Set(ctx, key, "my-expiring-value", 5*time.Second); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	got, ok, err := cache.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if !ok || got != "my-expiring-value" {
		return tck.Violated("get before expiry", `"my-expiring-value"`, present(got, ok))
	}
	return nil
}

func cacheExpiry(ctx context.Context, tc *tck.TC) error {
	cache, err := cacheProvider(ctx, tc)
	if err != nil {
		return err
	}
	h := tc.Harness()
	key := "tck-key-" + uuid.NewString()

	if err := cache.Set(ctx, key, "this-will-vanish", shortTTL); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	if err := h.Sleep(ctx, shortTTL+h.Slack()); err != nil {
		return err
	}
	got, ok, err := cache.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if ok {
		return tck.Violated("get after ttl elapsed", "cache miss", present(got, ok))
	}
	return nil
}

func cacheDelete(ctx context.Context, tc *tck.TC) error {
	cache, err := cacheProvider(ctx, tc)
	if err != nil {
		return err
	}
	key := "tck-key-" + uuid.NewString()

	if err := cache.Set(ctx, key, "value-to-be-deleted", 10*time.Second); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	if err := cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	got, ok, err := cache.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if ok {
		return tck.Violated("get after delete", "cache miss", present(got, ok))
	}
	return nil
}

func cacheOverwriteResetsTTL(ctx context.Context, tc *tck.TC) error {
	cache, err := cacheProvider(ctx, tc)
	if err != nil {
		return err
	}
	h := tc.Harness()
	key := "tck-key-" + uuid.NewString()

	// Long TTL first, then overwrite with a short one; the short TTL
	// must govern.
	if err := cache.Set(ctx, key, "initial-value", time.Minute); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	if err := cache.Set(ctx, key, "overwritten-value", shortTTL); err != nil {
		return fmt.Errorf("second set: %w", err)
	}
	got, ok, err := cache.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if !ok || got != "overwritten-value" {
		return tck.Violated("get after overwrite", `"overwritten-value"`, present(got, ok))
	}
	if err := h.Sleep(ctx, shortTTL+h.Slack()); err != nil {
		return err
	}
	got, ok, err = cache.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get after wait: %w", err)
	}
	if ok {
		return tck.Violated("get after replaced ttl elapsed", "cache miss", present(got, ok))
	}
	return nil
}
