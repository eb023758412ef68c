package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/haze/nocap/internal/challenge"
	"github.com/haze/nocap/internal/engine"
	"github.com/haze/nocap/pkg/types"
)

// Registry maps challenges to their loaded engines.
type Registry struct {
	guards map[challenge.Challenge]*guard // never mutated after construction

	engine    string
	root      string
	policy    PoisonPolicy
	log       zerolog.Logger
	publisher EventPublisher
	tracer    trace.Tracer

	started  time.Time
	loadTime time.Duration

	closeMu sync.Mutex
	closed  atomic.Bool
}

// NewFromEngines builds a registry around already loaded engines. The
// registry takes ownership of them.
func NewFromEngines(engines map[challenge.Challenge]engine.Engine, cfg Config) *Registry {
	gs := make(guardMap, len(engines))
	for c, e := range engines {
		gs[c] = newGuard(c, e)
	}
	return newRegistry(gs, cfg.withDefaults())
}

func newRegistry(gs guardMap, cfg Config) *Registry {
	return &Registry{
		guards:    gs,
		engine:    cfg.engineName(),
		policy:    cfg.PoisonPolicy,
		log:       *cfg.Logger,
		publisher: cfg.Publisher,
		tracer:    cfg.Tracer,
		started:   time.Now(),
	}
}

// Ready reports whether the registry can serve predictions.
func (r *Registry) Ready() bool { return r != nil && !r.closed.Load() }

// Has reports whether a model is loaded for c.
func (r *Registry) Has(c challenge.Challenge) bool {
	_, ok := r.guards[c]
	return ok
}

// Len returns the number of loaded challenges.
func (r *Registry) Len() int { return len(r.guards) }

// Challenges returns the loaded challenges in catalog order.
func (r *Registry) Challenges() []challenge.Challenge {
	out := make([]challenge.Challenge, 0, len(r.guards))
	for _, c := range challenge.All() {
		if _, ok := r.guards[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Status builds a point-in-time view of every loaded challenge.
func (r *Registry) Status() types.StatusResponse {
	resp := types.StatusResponse{
		Engine:        r.engine,
		ModelsDir:     r.root,
		LoadMillis:    r.loadTime.Milliseconds(),
		UptimeSeconds: int64(time.Since(r.started) / time.Second),
		Closed:        r.closed.Load(),
	}
	resp.Challenges = make([]types.ChallengeStatus, 0, len(r.guards))
	for _, c := range r.Challenges() {
		g := r.guards[c]
		resp.Challenges = append(resp.Challenges, types.ChallengeStatus{
			Challenge: c.String(),
			Inflight:  g.inflight(),
			Waiting:   int(g.waiting.Load()),
			Poisoned:  g.poisoned.Load(),
			Served:    g.served.Load(),
		})
	}
	return resp
}

// Close waits for in-flight predictions to finish and releases every
// engine. Predictions issued after Close fail with ErrClosed. If ctx ends
// first the remaining engines stay open and Close may be called again.
func (r *Registry) Close(ctx context.Context) error {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	r.closed.Store(true)

	var errs []error
	for _, c := range r.Challenges() {
		g := r.guards[c]
		if err := g.acquire(ctx); err != nil {
			return errors.Join(append(errs, fmt.Errorf("drain %s: %w", c, err))...)
		}
		if g.engine != nil {
			if err := g.engine.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", c, err))
			}
			g.engine = nil
		}
		g.release()
	}
	modelsLoaded.Set(0)
	r.publisher.Publish(Event{Name: EventClosed, Fields: map[string]any{}})
	r.log.Info().Int("models", len(r.guards)).Msg("registry closed")
	return errors.Join(errs...)
}
