package resilience_test

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openomni/tck/contracts/resilience"
	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

func verdicts(t *testing.T, contract *tck.Contract, fixture tck.Fixture) *tck.Report {
	t.Helper()
	composed, err := tck.Compose(contract)
	require.NoError(t, err)
	suite, err := tck.NewSuite(composed, fixture, tck.WithParallelism(4))
	require.NoError(t, err)
	return suite.Run(context.Background())
}

// stickyLockService grants locks but Release never frees the shared
// grant, so other handles keep observing the lock as held.
type stickyLockService struct {
	mu   sync.Mutex
	held map[string]*stickyLock
}

func (s *stickyLockService) GetLock(name string, _ time.Duration) resilience.Lock {
	return &stickyLock{svc: s, name: name}
}

type stickyLock struct {
	svc  *stickyLockService
	name string
}

func (l *stickyLock) Acquire(context.Context) (bool, error) {
	l.svc.mu.Lock()
	defer l.svc.mu.Unlock()
	if owner, ok := l.svc.held[l.name]; ok && owner != l {
		return false, nil
	}
	l.svc.held[l.name] = l
	return true, nil
}

func (l *stickyLock) Release(context.Context) error {
	l.svc.mu.Lock()
	defer l.svc.mu.Unlock()
	if l.svc.held[l.name] != l {
		return model.ErrLockNotHeld
	}
	return nil
}

func (l *stickyLock) Do(ctx context.Context, fn func(context.Context) error) error {
	ok, err := l.Acquire(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrLockNotHeld
	}
	defer l.Release(ctx)
	return fn(ctx)
}

func TestMutualExclusionRejectsIneffectiveRelease(t *testing.T) {
	fixture := tck.Fixture{
		Shape: tck.Shape{Provider: reflect.TypeOf((*stickyLockService)(nil))},
		New: func(context.Context) (tck.Factory, error) {
			svc := &stickyLockService{held: make(map[string]*stickyLock)}
			return func(context.Context, tck.Params) (*tck.Env, error) {
				return &tck.Env{Provider: svc}, nil
			}, nil
		},
	}
	report := verdicts(t, resilience.DistributedLockContract(), fixture)

	res, ok := report.Result("distributed_lock", "mutual_exclusion")
	require.True(t, ok)
	assert.Equal(t, tck.StatusFail, res.Status)
	assert.Contains(t, res.Reason, "acquire after holder release")
}
