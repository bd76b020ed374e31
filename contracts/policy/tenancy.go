package policy

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/openomni/tck/contracts/primitives"
	"github.com/openomni/tck/tck"
)

// MultiTenancyContract defines isolation clauses over the KVStore
// capability. A fixture honoring it must scope each Env to the tenant
// named by the "tenant_id" param while sharing the backing store across
// envs of the same clause, so two envs with different tenants model two
// tenants of one deployment.
func MultiTenancyContract() *tck.Contract {
	c := tck.NewContract("policy", "multi_tenancy", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[primitives.KVStore]()},
		Params: []tck.ParamSpec{
			tck.ParamWithDefault[string]("tenant_id", ""),
		},
	})
	c.Clause("tenants_see_own_values",
		"The same key holds independent values per tenant.", tenantIsolation)
	c.Clause("delete_is_tenant_scoped",
		"Deleting a key in one tenant leaves the other tenant's value intact.", tenantDeleteScope)
	return c
}

func tenantStore(ctx context.Context, tc *tck.TC, tenant string) (primitives.KVStore, error) {
	env, err := tc.Env(ctx, tck.Params{"tenant_id": tenant})
	if err != nil {
		return nil, err
	}
	return tck.ProviderAs[primitives.KVStore](env)
}

func tenantIsolation(ctx context.Context, tc *tck.TC) error {
	t1, err := tenantStore(ctx, tc, "tenant-1-"+uuid.NewString())
	if err != nil {
		return err
	}
	t2, err := tenantStore(ctx, tc, "tenant-2-"+uuid.NewString())
	if err != nil {
		return err
	}
	key := "shared-key"
	if err := t1.Set(ctx, key, "alpha"); err != nil {
		return fmt.Errorf("tenant 1 set: %w", err)
	}
	if err := t2.Set(ctx, key, "beta"); err != nil {
		return fmt.Errorf("tenant 2 set: %w", err)
	}
	v1, ok, err := t1.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("tenant 1 get: %w", err)
	}
	if !ok || v1 != "alpha" {
		return tck.Violated("tenant 1 value", "alpha", fmt.Sprintf("%q (present=%t)", v1, ok))
	}
	v2, ok, err := t2.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("tenant 2 get: %w", err)
	}
	if !ok || v2 != "beta" {
		return tck.Violated("tenant 2 value", "beta", fmt.Sprintf("%q (present=%t)", v2, ok))
	}
	return nil
}

func tenantDeleteScope(ctx context.Context, tc *tck.TC) error {
	t1, err := tenantStore(ctx, tc, "tenant-1-"+uuid.NewString())
	if err != nil {
		return err
	}
	t2, err := tenantStore(ctx, tc, "tenant-2-"+uuid.NewString())
	if err != nil {
		return err
	}
	key := "doomed-key"
	if err := t1.Set(ctx, key, "alpha"); err != nil {
		return fmt.Errorf("tenant 1 set: %w", err)
	}
	if err := t2.Set(ctx, key, "beta"); err != nil {
		return fmt.Errorf("tenant 2 set: %w", err)
	}
	if err := t1.Delete(ctx, key); err != nil {
		return fmt.Errorf("tenant 1 delete: %w", err)
	}
	_, ok, err := t1.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("tenant 1 get: %w", err)
	}
	if ok {
		return tck.Violated("tenant 1 key after delete", "absent", "present")
	}
	v2, ok, err := t2.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("tenant 2 get: %w", err)
	}
	if !ok || v2 != "beta" {
		return tck.Violated("tenant 2 value after tenant 1 delete", "beta", fmt.Sprintf("%q (present=%t)", v2, ok))
	}
	return nil
}
