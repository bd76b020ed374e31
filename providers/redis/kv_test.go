package redis_test

import (
	"context"

	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/openomni/tck/contracts/policy"
	"github.com/openomni/tck/contracts/primitives"
	"github.com/openomni/tck/providers/redis"
	"github.com/openomni/tck/tck"
)

func TestTenantScopedKVCertification(t *testing.T) {
	srv := miniredis.RunT(t)

	composed, err := tck.Compose(primitives.KVStoreContract(), policy.MultiTenancyContract())
	require.NoError(t, err)
	suite, err := tck.NewSuite(composed, redis.KVFixture(srv.Addr()))
	require.NoError(t, err)
	suite.RunT(t)
}

func TestKVMissReportsAbsent(t *testing.T) {
	srv := miniredis.RunT(t)
	kv := redis.NewKV(srv.Addr(), "tenant-a")
	defer kv.Close()

	_, ok, err := kv.Get(context.Background(), "never-set")
	require.NoError(t, err)
	require.False(t, ok)
}
