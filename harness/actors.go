package harness

import (
	"context"
	"errors"
	"sync"
)

// Gate is a one-shot rendezvous point between simulated actors. It starts
// closed; Open releases every current and future waiter. Opening an
// already-open gate is a no-op, so actors can defer Open on every exit
// path without risk.
type Gate struct {
	once sync.Once
	ch   chan struct{}
}

// NewGate creates a closed gate.
func NewGate() *Gate {
	return &Gate{ch: make(chan struct{})}
}

// Open releases all waiters. Safe to call more than once.
func (g *Gate) Open() {
	g.once.Do(func() { close(g.ch) })
}

// Wait blocks until the gate opens or the context is done.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Concurrently runs every actor in its own goroutine behind a common start
// barrier, guaranteeing all actors are in flight together before any of
// them makes progress. The call returns once every actor finishes, joining
// their errors.
//
// The actors' context carries a deadline of the configured wait bound so a
// mis-sequenced rendezvous surfaces as an error instead of a hang.
func (h *Harness) Concurrently(ctx context.Context, actors ...func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.WaitBound)
	defer cancel()

	start := make(chan struct{})
	errs := make([]error, len(actors))
	var wg sync.WaitGroup
	for i, actor := range actors {
		wg.Add(1)
		go func(i int, actor func(context.Context) error) {
			defer wg.Done()
			<-start
			errs[i] = actor(ctx)
		}(i, actor)
	}
	close(start)
	wg.Wait()
	return errors.Join(errs...)
}
