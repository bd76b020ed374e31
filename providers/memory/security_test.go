package memory_test

import (
	"testing"

	"github.com/openomni/tck/contracts/policy"
	"github.com/openomni/tck/contracts/primitives"
	"github.com/openomni/tck/contracts/security"
	"github.com/openomni/tck/providers/memory"
)

func TestIAMCertification(t *testing.T) {
	certify(t, security.IAMContract(), memory.IAMFixture())
}

// The tenancy contract composes onto kv_store: one fixture, one suite,
// both contracts' clauses.
func TestTenantScopedKVCertification(t *testing.T) {
	certify(t, primitives.KVStoreContract(), memory.KVFixture(), policy.MultiTenancyContract())
}
