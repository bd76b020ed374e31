package memory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openomni/tck/contracts/primitives"
	"github.com/openomni/tck/providers/memory"
	"github.com/openomni/tck/tck"
)

func certify(t *testing.T, contract *tck.Contract, fixture tck.Fixture, policies ...*tck.Contract) {
	t.Helper()
	composed, err := tck.Compose(contract, policies...)
	require.NoError(t, err)
	suite, err := tck.NewSuite(composed, fixture, tck.WithParallelism(4))
	require.NoError(t, err)
	suite.RunT(t)
}

func TestKVStoreCertification(t *testing.T) {
	certify(t, primitives.KVStoreContract(), memory.KVFixture())
}

func TestCacheCertification(t *testing.T) {
	certify(t, primitives.CacheContract(), memory.CacheFixture())
}

func TestSecretsCertification(t *testing.T) {
	certify(t, primitives.SecretsContract(), memory.SecretsFixture())
}

func TestObjectStorageCertification(t *testing.T) {
	certify(t, primitives.ObjectStorageContract(), memory.ObjectStoreFixture())
}

func TestDocumentDatabaseCertification(t *testing.T) {
	certify(t, primitives.DocumentDatabaseContract(), memory.DocDBFixture())
}
