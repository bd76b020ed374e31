// Package redis implements a Redis-backed provider for the kv_store
// and multi_tenancy contracts. Tenant isolation is key-prefix based,
// the common single-instance multi-tenant layout.
package redis

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/redis/go-redis/v9"

	"github.com/openomni/tck/contracts/primitives"
	"github.com/openomni/tck/tck"
)

// KV is a tenant-scoped key/value view over one Redis connection.
type KV struct {
	client *redis.Client
	tenant string
}

// NewKV returns a view over addr scoped to tenant. The empty tenant is
// its own partition.
func NewKV(addr, tenant string) *KV {
	return &KV{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		tenant: tenant,
	}
}

func (s *KV) key(key string) string {
	return fmt.Sprintf("t:{%s}:%s", s.tenant, key)
}

func (s *KV) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *KV) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// Close releases the connection.
func (s *KV) Close() error {
	return s.client.Close()
}

// KVFixture builds a fixture over the Redis instance at addr. Each env
// opens its own connection scoped to the clause's "tenant_id" param;
// cleanup closes it. Clause isolation comes from unique keys, not
// separate databases, so the instance may be shared.
func KVFixture(addr string) tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*KV)(nil)),
			Params: []tck.ParamSpec{
				tck.ParamWithDefault[string]("tenant_id", ""),
			},
		},
		New: func(context.Context) (tck.Factory, error) {
			return func(_ context.Context, params tck.Params) (*tck.Env, error) {
				tenant, err := tck.ParamValue[string](params, "tenant_id")
				if err != nil {
					return nil, err
				}
				kv := NewKV(addr, tenant)
				return &tck.Env{
					Provider: kv,
					Cleanup:  func(context.Context) error { return kv.Close() },
				}, nil
			}, nil
		},
	}
}

var _ primitives.KVStore = (*KV)(nil)
