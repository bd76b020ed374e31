package memory

import (
	"context"
	"reflect"
	"sync"

	"github.com/openomni/tck/contracts/primitives"
	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// Secrets is an in-memory read-only secret source seeded at env
// construction.
type Secrets struct {
	mu      sync.RWMutex
	secrets map[string]string
}

func (s *Secrets) Get(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.secrets[name]
	if !ok {
		return "", model.ErrSecretNotFound
	}
	return value, nil
}

// SecretsFixture builds a fixture whose store is seeded with the
// "secret_name"/"secret_value" params of each environment. Envs of one
// clause share the store, so a seed in one handle is readable through
// another.
func SecretsFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*Secrets)(nil)),
			Params: []tck.ParamSpec{
				tck.ParamWithDefault[string]("secret_name", primitives.DefaultSecretName),
				tck.ParamWithDefault[string]("secret_value", primitives.DefaultSecretValue),
			},
		},
		New: func(context.Context) (tck.Factory, error) {
			store := &Secrets{secrets: make(map[string]string)}
			return func(_ context.Context, params tck.Params) (*tck.Env, error) {
				name, err := tck.ParamValue[string](params, "secret_name")
				if err != nil {
					return nil, err
				}
				value, err := tck.ParamValue[string](params, "secret_value")
				if err != nil {
					return nil, err
				}
				store.mu.Lock()
				store.secrets[name] = value
				store.mu.Unlock()
				return &tck.Env{Provider: store}, nil
			}, nil
		},
	}
}

var _ primitives.Secrets = (*Secrets)(nil)
