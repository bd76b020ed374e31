package memory

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openomni/tck/contracts/resilience"
	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

type lockGrant struct {
	owner     string
	expiresAt time.Time
}

// LockService is an in-memory lease-based lock service. Expired grants
// are reaped lazily on the next acquire or release.
type LockService struct {
	mu   sync.Mutex
	held map[string]lockGrant
}

// NewLockService returns a service with no held locks.
func NewLockService() *LockService {
	return &LockService{held: make(map[string]lockGrant)}
}

func (s *LockService) GetLock(name string, ttl time.Duration) resilience.Lock {
	return &memLock{svc: s, name: name, ttl: ttl, owner: uuid.NewString()}
}

type memLock struct {
	svc   *LockService
	name  string
	ttl   time.Duration
	owner string
}

func (l *memLock) Acquire(_ context.Context) (bool, error) {
	l.svc.mu.Lock()
	defer l.svc.mu.Unlock()
	grant, ok := l.svc.held[l.name]
	if ok && grant.owner != l.owner && time.Now().Before(grant.expiresAt) {
		return false, nil
	}
	l.svc.held[l.name] = lockGrant{owner: l.owner, expiresAt: time.Now().Add(l.ttl)}
	return true, nil
}

func (l *memLock) Release(_ context.Context) error {
	l.svc.mu.Lock()
	defer l.svc.mu.Unlock()
	grant, ok := l.svc.held[l.name]
	if !ok || grant.owner != l.owner || time.Now().After(grant.expiresAt) {
		return model.ErrLockNotHeld
	}
	delete(l.svc.held, l.name)
	return nil
}

func (l *memLock) Do(ctx context.Context, fn func(context.Context) error) error {
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

// LockFixture builds a fixture over NewLockService. All envs of a
// clause share the service, so handles contend for the same locks.
func LockFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*LockService)(nil)),
		},
		New: func(context.Context) (tck.Factory, error) {
			svc := NewLockService()
			return func(context.Context, tck.Params) (*tck.Env, error) {
				return &tck.Env{Provider: svc}, nil
			}, nil
		},
	}
}

var _ resilience.LockService = (*LockService)(nil)
