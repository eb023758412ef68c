package registry

import (
	"context"
	"sync/atomic"

	"github.com/haze/nocap/internal/challenge"
	"github.com/haze/nocap/internal/engine"
)

// guard serializes access to one engine. sem has capacity 1: holding its
// only slot is holding the lock. engine is read and written only by the
// holder.
type guard struct {
	challenge challenge.Challenge
	engine    engine.Engine
	sem       chan struct{}

	waiting  atomic.Int64
	poisoned atomic.Bool
	served   atomic.Uint64
}

func newGuard(c challenge.Challenge, e engine.Engine) *guard {
	return &guard{challenge: c, engine: e, sem: make(chan struct{}, 1)}
}

// acquire blocks until the slot is free or ctx is done.
func (g *guard) acquire(ctx context.Context) error {
	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		return err
	}
	g.waiting.Add(1)
	defer g.waiting.Add(-1)
	select {
	case g.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *guard) release() { <-g.sem }

func (g *guard) inflight() int { return len(g.sem) }
