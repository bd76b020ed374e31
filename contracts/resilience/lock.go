package resilience

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/openomni/tck/harness"
	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

const lockTTL = 2 * time.Second

// DistributedLockContract defines the compliance suite for providers of
// the LockService capability.
func DistributedLockContract() *tck.Contract {
	c := tck.NewContract("resilience", "distributed_lock", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[LockService]()},
	})
	c.Clause("acquire_release_reacquire",
		"A released lock can be acquired again immediately.", lockReacquire)
	c.Clause("mutual_exclusion",
		"A held lock rejects a second handle until the holder releases.", lockMutualExclusion)
	c.Clause("ttl_expiry_frees_lock",
		"A lock whose TTL elapsed can be acquired by another handle.", lockTTLExpiry)
	c.Clause("scoped_do_releases",
		"Do releases the lock whether fn succeeds or fails.", lockScopedDo)
	c.Clause("release_without_hold_fails",
		"Releasing a lock that is not held reports ErrLockNotHeld.", lockReleaseNotHeld)
	return c
}

func lockService(ctx context.Context, tc *tck.TC) (LockService, error) {
	env, err := tc.Env(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tck.ProviderAs[LockService](env)
}

func lockReacquire(ctx context.Context, tc *tck.TC) error {
	svc, err := lockService(ctx, tc)
	if err != nil {
		return err
	}
	name := "tck-lock-" + uuid.NewString()
	lock := svc.GetLock(name, lockTTL)

	ok, err := lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	if !ok {
		return tck.Violated("first acquire", "acquired", "not acquired")
	}
	if err := lock.Release(ctx); err != nil {
		return fmt.Errorf("release: %w", err)
	}
	ok, err = lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("reacquire: %w", err)
	}
	if !ok {
		return tck.Violated("acquire after release", "acquired", "not acquired")
	}
	return lock.Release(ctx)
}

func lockMutualExclusion(ctx context.Context, tc *tck.TC) error {
	svc, err := lockService(ctx, tc)
	if err != nil {
		return err
	}
	h := tc.Harness()
	name := "tck-lock-" + uuid.NewString()

	held := harness.NewGate()
	checked := harness.NewGate()
	var contended bool

	err = h.Concurrently(ctx,
		func(ctx context.Context) error {
			defer held.Open()
			lock := svc.GetLock(name, lockTTL)
			ok, err := lock.Acquire(ctx)
			if err != nil {
				return fmt.Errorf("holder acquire: %w", err)
			}
			if !ok {
				return tck.Violated("holder acquire", "acquired", "not acquired")
			}
			held.Open()
			if err := checked.Wait(ctx); err != nil {
				return err
			}
			return lock.Release(ctx)
		},
		func(ctx context.Context) error {
			defer checked.Open()
			if err := held.Wait(ctx); err != nil {
				return err
			}
			lock := svc.GetLock(name, lockTTL)
			ok, err := lock.Acquire(ctx)
			if err != nil {
				return fmt.Errorf("contender acquire: %w", err)
			}
			if ok {
				_ = lock.Release(ctx)
				return nil
			}
			contended = true
			return nil
		},
	)
	if err != nil {
		return err
	}
	if !contended {
		return tck.Violated("acquire while held", "not acquired", "acquired")
	}

	// The holder has released; the contender must now succeed.
	again := svc.GetLock(name, lockTTL)
	ok, err := again.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire after release: %w", err)
	}
	if !ok {
		return tck.Violated("acquire after holder release", "acquired", "not acquired")
	}
	return again.Release(ctx)
}

func lockTTLExpiry(ctx context.Context, tc *tck.TC) error {
	svc, err := lockService(ctx, tc)
	if err != nil {
		return err
	}
	h := tc.Harness()
	name := "tck-lock-" + uuid.NewString()
	ttl := 1 * time.Second

	first := svc.GetLock(name, ttl)
	ok, err := first.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("first acquire: %w", err)
	}
	if !ok {
		return tck.Violated("first acquire", "acquired", "not acquired")
	}
	if err := h.Sleep(ctx, ttl+h.Slack()); err != nil {
		return err
	}
	second := svc.GetLock(name, lockTTL)
	ok, err = second.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire after expiry: %w", err)
	}
	if !ok {
		return tck.Violated("acquire after TTL expiry", "acquired", "not acquired")
	}
	return second.Release(ctx)
}

func lockScopedDo(ctx context.Context, tc *tck.TC) error {
	svc, err := lockService(ctx, tc)
	if err != nil {
		return err
	}
	name := "tck-lock-" + uuid.NewString()
	lock := svc.GetLock(name, lockTTL)

	var ran bool
	if err := lock.Do(ctx, func(context.Context) error {
		ran = true
		return nil
	}); err != nil {
		return fmt.Errorf("do: %w", err)
	}
	if !ran {
		return tck.Violated("do", "fn invoked", "fn not invoked")
	}

	// fn failure must still release.
	opErr := errors.New("operation failed")
	if err := lock.Do(ctx, func(context.Context) error { return opErr }); !errors.Is(err, opErr) {
		return tck.Violated("do with failing fn", "fn error propagated", fmt.Sprintf("%v", err))
	}
	ok, err := svc.GetLock(name, lockTTL).Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire after do: %w", err)
	}
	if !ok {
		return tck.Violated("acquire after do", "acquired", "still held")
	}
	return nil
}

func lockReleaseNotHeld(ctx context.Context, tc *tck.TC) error {
	svc, err := lockService(ctx, tc)
	if err != nil {
		return err
	}
	lock := svc.GetLock("tck-lock-"+uuid.NewString(), lockTTL)
	if err := lock.Release(ctx); !errors.Is(err, model.ErrLockNotHeld) {
		return tck.Violated("release without hold", model.ErrLockNotHeld, err)
	}
	return nil
}
