package registry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/haze/nocap/internal/challenge"
	"github.com/haze/nocap/pkg/types"
)

// Predict runs the model for c on the raw image bytes carried in image.
//
// Predictions for the same challenge run one at a time; Predict blocks until
// the challenge's model is free or ctx is done. With a context that never
// ends, it waits indefinitely. Predictions for different challenges never
// wait on each other. Failures are returned as is; nothing is retried.
func (r *Registry) Predict(ctx context.Context, c challenge.Challenge, image string) (types.Prediction, error) {
	ctx, span := r.tracer.Start(ctx, "registry.Predict", trace.WithAttributes(attribute.String("challenge", c.String())))
	defer span.End()

	p, err := r.predict(ctx, c, image)
	predictionsTotal.WithLabelValues(c.String(), outcomeLabel(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return types.Prediction{}, err
	}
	return p, nil
}

func (r *Registry) predict(ctx context.Context, c challenge.Challenge, image string) (types.Prediction, error) {
	if r.closed.Load() {
		return types.Prediction{}, ErrClosed
	}
	g, ok := r.guards[c]
	if !ok {
		return types.Prediction{}, errNotLoaded(c)
	}
	if g.poisoned.Load() {
		return types.Prediction{}, errPoisoned(c)
	}

	waitStart := time.Now()
	if err := g.acquire(ctx); err != nil {
		return types.Prediction{}, err
	}
	defer g.release()
	lockWait.WithLabelValues(c.String()).Observe(time.Since(waitStart).Seconds())

	// State may have changed while waiting.
	if r.closed.Load() || g.engine == nil {
		return types.Prediction{}, ErrClosed
	}
	if g.poisoned.Load() {
		return types.Prediction{}, errPoisoned(c)
	}

	start := time.Now()
	aff, neg, err := r.run(g, image)
	predictionDuration.WithLabelValues(c.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		return types.Prediction{}, err
	}
	g.served.Add(1)
	return types.Prediction{AffirmativeConfidence: aff, NegativeConfidence: neg}, nil
}

// run calls the engine while the caller holds g. A panic is recovered and
// returned as an EngineError; under PoisonPropagate it also disables g.
func (r *Registry) run(g *guard, image string) (aff, neg float32, err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		err = &EngineError{Challenge: g.challenge, Err: fmt.Errorf("%w: %v", ErrEnginePanic, rec)}
		r.log.Error().Str("challenge", g.challenge.String()).Interface("panic", rec).Msg("engine panicked")
		r.publisher.Publish(Event{Name: EventPredictPanic, Challenge: g.challenge.String(), Fields: map[string]any{"panic": fmt.Sprint(rec)}})
		if r.policy == PoisonPropagate {
			g.poisoned.Store(true)
			r.log.Warn().Str("challenge", g.challenge.String()).Msg("challenge disabled after panic")
			r.publisher.Publish(Event{Name: EventGuardPoisoned, Challenge: g.challenge.String(), Fields: map[string]any{}})
		}
	}()
	aff, neg, err = g.engine.Run(image)
	if err != nil {
		return 0, 0, &EngineError{Challenge: g.challenge, Err: err}
	}
	return aff, neg, nil
}
