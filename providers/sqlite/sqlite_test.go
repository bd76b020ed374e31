package sqlite_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openomni/tck/contracts/resilience"
	"github.com/openomni/tck/providers/sqlite"
	"github.com/openomni/tck/tck"
)

func certify(t *testing.T, contract *tck.Contract, fixture tck.Fixture) {
	t.Helper()
	composed, err := tck.Compose(contract)
	require.NoError(t, err)
	suite, err := tck.NewSuite(composed, fixture)
	require.NoError(t, err)
	suite.RunT(t)
}

func TestSagaRepositoryCertification(t *testing.T) {
	certify(t, resilience.SagaRepositoryContract(), sqlite.SagaFixture())
}

func TestOutboxRepositoryCertification(t *testing.T) {
	certify(t, resilience.OutboxRepositoryContract(), sqlite.OutboxFixture())
}

func TestOpenRejectsBadPath(t *testing.T) {
	_, err := sqlite.Open("/nonexistent-dir/tck.db")
	require.Error(t, err)
}
