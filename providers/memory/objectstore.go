package memory

import (
	"context"
	"reflect"
	"slices"
	"sync"

	"github.com/openomni/tck/contracts/primitives"
	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// ObjectStore is an in-memory blob store keyed by object name.
type ObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewObjectStore returns an empty store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string][]byte)}
}

func (s *ObjectStore) Upload(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = slices.Clone(data)
	return nil
}

func (s *ObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, model.ErrObjectNotFound
	}
	return slices.Clone(data), nil
}

func (s *ObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// ObjectStoreFixture builds a fixture over NewObjectStore, one store
// per clause.
func ObjectStoreFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*ObjectStore)(nil)),
		},
		New: func(context.Context) (tck.Factory, error) {
			store := NewObjectStore()
			return func(context.Context, tck.Params) (*tck.Env, error) {
				return &tck.Env{Provider: store}, nil
			}, nil
		},
	}
}

var _ primitives.ObjectStorage = (*ObjectStore)(nil)
