package memory

import (
	"context"
	"reflect"
	"sync"

	"github.com/openomni/tck/contracts/primitives"
	"github.com/openomni/tck/tck"
)

// KV is a tenant-partitioned in-memory key/value store. The zero tenant
// id is a valid partition of its own.
type KV struct {
	mu      sync.RWMutex
	tenants map[string]map[string]string
}

// NewKV returns an empty store.
func NewKV() *KV {
	return &KV{tenants: make(map[string]map[string]string)}
}

// Tenant returns a KVStore view scoped to one tenant's partition.
func (s *KV) Tenant(tenant string) *KVView {
	return &KVView{store: s, tenant: tenant}
}

// KVView is a single-tenant handle over a shared KV store.
type KVView struct {
	store  *KV
	tenant string
}

func (v *KVView) Set(_ context.Context, key, value string) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	part, ok := v.store.tenants[v.tenant]
	if !ok {
		part = make(map[string]string)
		v.store.tenants[v.tenant] = part
	}
	part[key] = value
	return nil
}

func (v *KVView) Get(_ context.Context, key string) (string, bool, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	value, ok := v.store.tenants[v.tenant][key]
	return value, ok, nil
}

func (v *KVView) Delete(_ context.Context, key string) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	delete(v.store.tenants[v.tenant], key)
	return nil
}

// KVFixture builds a fixture over NewKV. Environments of one clause
// share the store; the "tenant_id" param selects the partition each
// handle sees.
func KVFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*KVView)(nil)),
			Params: []tck.ParamSpec{
				tck.ParamWithDefault[string]("tenant_id", ""),
			},
		},
		New: func(context.Context) (tck.Factory, error) {
			store := NewKV()
			return func(_ context.Context, params tck.Params) (*tck.Env, error) {
				tenant, err := tck.ParamValue[string](params, "tenant_id")
				if err != nil {
					return nil, err
				}
				return &tck.Env{Provider: store.Tenant(tenant)}, nil
			}, nil
		},
	}
}

var _ primitives.KVStore = (*KVView)(nil)
