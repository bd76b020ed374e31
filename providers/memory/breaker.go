package memory

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/openomni/tck/contracts/resilience"
	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// Breaker is an in-memory circuit breaker counting consecutive
// failures. The open-to-half-open transition happens lazily when the
// state is next observed after the reset timeout.
type Breaker struct {
	mu           sync.Mutex
	threshold    int
	resetTimeout time.Duration

	state    model.CircuitState
	failures int
	openedAt time.Time
}

// NewBreaker returns a closed breaker.
func NewBreaker(threshold int, resetTimeout time.Duration) *Breaker {
	return &Breaker{threshold: threshold, resetTimeout: resetTimeout, state: model.CircuitClosed}
}

// refreshLocked applies the lazy open-to-half-open transition.
func (b *Breaker) refreshLocked() {
	if b.state == model.CircuitOpen && time.Since(b.openedAt) >= b.resetTimeout {
		b.state = model.CircuitHalfOpen
	}
}

func (b *Breaker) State() model.CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()
	return b.state
}

func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	b.mu.Lock()
	b.refreshLocked()
	if b.state == model.CircuitOpen {
		b.mu.Unlock()
		return model.ErrCircuitOpen
	}
	probing := b.state == model.CircuitHalfOpen
	b.mu.Unlock()

	err := op(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case err == nil:
		b.state = model.CircuitClosed
		b.failures = 0
	case probing:
		b.state = model.CircuitOpen
		b.openedAt = time.Now()
	default:
		b.failures++
		if b.failures >= b.threshold {
			b.state = model.CircuitOpen
			b.openedAt = time.Now()
		}
	}
	return err
}

// BreakerFixture builds a fixture constructing one breaker per env from
// the "failure_threshold" and "reset_timeout" params.
func BreakerFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*Breaker)(nil)),
			Params: []tck.ParamSpec{
				tck.Param[int]("failure_threshold"),
				tck.Param[time.Duration]("reset_timeout"),
			},
		},
		New: func(context.Context) (tck.Factory, error) {
			return func(_ context.Context, params tck.Params) (*tck.Env, error) {
				threshold, err := tck.ParamValue[int](params, "failure_threshold")
				if err != nil {
					return nil, err
				}
				reset, err := tck.ParamValue[time.Duration](params, "reset_timeout")
				if err != nil {
					return nil, err
				}
				return &tck.Env{Provider: NewBreaker(threshold, reset)}, nil
			}, nil
		},
	}
}

var _ resilience.CircuitBreaker = (*Breaker)(nil)
