package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/openomni/tck/contracts/messaging"
	"github.com/openomni/tck/contracts/observability"
	"github.com/openomni/tck/contracts/policy"
	"github.com/openomni/tck/contracts/primitives"
	"github.com/openomni/tck/contracts/resilience"
	"github.com/openomni/tck/contracts/security"
	"github.com/openomni/tck/providers/memory"
	"github.com/openomni/tck/providers/redis"
	"github.com/openomni/tck/providers/sqlite"
	"github.com/openomni/tck/tck"
)

// redisAddrEnv names the variable that enables the Redis certification.
const redisAddrEnv = "TCK_REDIS_ADDR"

// Certification is one runnable pairing of composed contracts with a
// provider fixture.
type Certification struct {
	Name        string
	Description string
	Build       func() (*tck.Composed, tck.Fixture, error)
}

func compose(fixture tck.Fixture, primary *tck.Contract, policies ...*tck.Contract) func() (*tck.Composed, tck.Fixture, error) {
	return func() (*tck.Composed, tck.Fixture, error) {
		composed, err := tck.Compose(primary, policies...)
		if err != nil {
			return nil, tck.Fixture{}, err
		}
		return composed, fixture, nil
	}
}

// BuiltinCertifications returns the certifications bundled with the
// binary, sorted by name. The Redis entry appears only when
// TCK_REDIS_ADDR points at a reachable instance.
func BuiltinCertifications() []Certification {
	certs := []Certification{
		{
			Name:        "memory/kv_store",
			Description: "In-memory key/value store with tenant isolation",
			Build: compose(memory.KVFixture(),
				primitives.KVStoreContract(), policy.MultiTenancyContract()),
		},
		{
			Name:        "memory/cache",
			Description: "In-memory cache with TTL expiry",
			Build:       compose(memory.CacheFixture(), primitives.CacheContract()),
		},
		{
			Name:        "memory/secrets",
			Description: "In-memory seeded secret source",
			Build:       compose(memory.SecretsFixture(), primitives.SecretsContract()),
		},
		{
			Name:        "memory/object_storage",
			Description: "In-memory blob store",
			Build:       compose(memory.ObjectStoreFixture(), primitives.ObjectStorageContract()),
		},
		{
			Name:        "memory/document_database",
			Description: "In-memory document database",
			Build:       compose(memory.DocDBFixture(), primitives.DocumentDatabaseContract()),
		},
		{
			Name:        "memory/distributed_lock",
			Description: "In-memory lease-based lock service",
			Build:       compose(memory.LockFixture(), resilience.DistributedLockContract()),
		},
		{
			Name:        "memory/circuit_breaker",
			Description: "In-memory circuit breaker",
			Build:       compose(memory.BreakerFixture(), resilience.CircuitBreakerContract()),
		},
		{
			Name:        "memory/saga_repository",
			Description: "In-memory saga store with optimistic locking",
			Build:       compose(memory.SagaFixture(), resilience.SagaRepositoryContract()),
		},
		{
			Name:        "memory/outbox_repository",
			Description: "In-memory transactional outbox",
			Build:       compose(memory.OutboxFixture(), resilience.OutboxRepositoryContract()),
		},
		{
			Name:        "memory/producer",
			Description: "In-memory topic producer",
			Build:       compose(memory.ProducerFixture(), messaging.ProducerContract()),
		},
		{
			Name:        "memory/consumer",
			Description: "In-memory managed consumer with retry and DLQ",
			Build:       compose(memory.ConsumerFixture(), messaging.ConsumerContract()),
		},
		{
			Name:        "memory/delayed_delivery",
			Description: "In-memory delayed message delivery",
			Build:       compose(memory.DelayedFixture(), messaging.DelayedDeliveryContract()),
		},
		{
			Name:        "memory/iam",
			Description: "In-memory policy authorizer",
			Build:       compose(memory.IAMFixture(), security.IAMContract()),
		},
		{
			Name:        "memory/observability",
			Description: "OpenTelemetry-instrumented client: traces, metrics, logs",
			Build: compose(memory.InstrumentedFixture(),
				observability.TracingContract(),
				observability.MetricsContract(),
				observability.LoggingContract()),
		},
		{
			Name:        "sqlite/saga_repository",
			Description: "SQLite saga store with conditional-update versioning",
			Build:       compose(sqlite.SagaFixture(), resilience.SagaRepositoryContract()),
		},
		{
			Name:        "sqlite/outbox_repository",
			Description: "SQLite outbox with transactional sequence assignment",
			Build:       compose(sqlite.OutboxFixture(), resilience.OutboxRepositoryContract()),
		},
	}

	if addr := os.Getenv(redisAddrEnv); addr != "" {
		certs = append(certs, Certification{
			Name:        "redis/kv_store",
			Description: fmt.Sprintf("Redis key/value store at %s with tenant prefixes", addr),
			Build: compose(redis.KVFixture(addr),
				primitives.KVStoreContract(), policy.MultiTenancyContract()),
		})
	}

	sort.Slice(certs, func(i, j int) bool { return certs[i].Name < certs[j].Name })
	return certs
}

// FindCertification looks up a certification by name.
func FindCertification(name string) (Certification, bool) {
	for _, c := range BuiltinCertifications() {
		if c.Name == name {
			return c, true
		}
	}
	return Certification{}, false
}
