package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/haze/nocap/internal/challenge"
	"github.com/haze/nocap/internal/common/fsutil"
)

// guardMap is a partial or complete challenge→guard mapping.
type guardMap map[challenge.Challenge]*guard

// union merges o into m. Keys never collide because directory names are
// unique, so the result does not depend on merge order.
func (m guardMap) union(o guardMap) guardMap {
	if len(m) < len(o) {
		m, o = o, m
	}
	for c, g := range o {
		m[c] = g
	}
	return m
}

// closeAll releases every engine in m.
func (m guardMap) closeAll() error {
	var errs []error
	for _, g := range m {
		if g.engine != nil {
			errs = append(errs, g.engine.Close())
			g.engine = nil
		}
	}
	return errors.Join(errs...)
}

// LoadDir builds a registry from the challenge directories directly under
// root. Entries whose names are not challenge names are skipped. Every
// remaining directory must hold the loader's artifact and load cleanly;
// otherwise LoadDir fails as a whole, closes whatever it had loaded and
// returns a *LoadError, or ctx's error if the load was canceled.
func LoadDir(ctx context.Context, root string, cfg Config) (*Registry, error) {
	if cfg.Loader == nil {
		return nil, errors.New("registry: no engine loader configured")
	}
	cfg = cfg.withDefaults()
	log := cfg.Logger
	start := time.Now()

	ctx, span := cfg.Tracer.Start(ctx, "registry.LoadDir",
		trace.WithAttributes(attribute.String("root", root), attribute.String("engine", cfg.Loader.Name())))
	defer span.End()

	fail := func(err error) (*Registry, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		cfg.Publisher.Publish(Event{Name: EventLoadFailed, Fields: map[string]any{"error": err.Error()}})
		log.Error().Err(err).Str("root", root).Msg("model load failed")
		return nil, err
	}

	abs, err := fsutil.ResolveDir(root)
	if err != nil {
		return fail(&LoadError{Kind: LoadIO, Path: root, Err: err})
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return fail(&LoadError{Kind: LoadIO, Path: abs, Err: err})
	}

	var candidates []os.DirEntry
	for _, e := range entries {
		if !challenge.IsValidNameBytes([]byte(e.Name())) {
			log.Debug().Str("entry", e.Name()).Msg("skipping non-challenge entry")
			continue
		}
		candidates = append(candidates, e)
	}
	log.Info().Str("root", abs).Int("candidates", len(candidates)).Str("engine", cfg.Loader.Name()).Msg("loading models")
	cfg.Publisher.Publish(Event{Name: EventLoadStart, Fields: map[string]any{"root": abs, "candidates": len(candidates)}})

	gs, err := loadAll(ctx, abs, candidates, cfg)
	if err != nil {
		return fail(err)
	}

	r := newRegistry(gs, cfg)
	r.root = abs
	r.loadTime = time.Since(start)
	modelsLoaded.Set(float64(len(gs)))
	loadDuration.Observe(r.loadTime.Seconds())
	span.SetAttributes(attribute.Int("models", len(gs)))
	log.Info().Int("models", len(gs)).Dur("dur", r.loadTime).Msg("models loaded")
	cfg.Publisher.Publish(Event{Name: EventLoadDone, Fields: map[string]any{"models": len(gs), "dur_ms": r.loadTime.Milliseconds()}})
	return r, nil
}

// loadAll fans entries out over up to cfg.Workers goroutines. Each worker
// folds its share into a partial map; the partials are then unioned. The
// first failure cancels the remaining workers.
func loadAll(ctx context.Context, root string, entries []os.DirEntry, cfg Config) (guardMap, error) {
	workers := min(cfg.Workers, len(entries))
	if workers == 0 {
		return guardMap{}, nil
	}
	partials := make([]guardMap, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		acc := guardMap{}
		partials[w] = acc
		g.Go(func() error {
			for i := w; i < len(entries); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				c, gd, err := loadOne(gctx, root, entries[i].Name(), cfg)
				if err != nil {
					return err
				}
				acc[c] = gd
			}
			return nil
		})
	}
	err := g.Wait()

	out := guardMap{}
	for _, p := range partials {
		out = out.union(p)
	}
	if err != nil {
		if cerr := out.closeAll(); cerr != nil {
			cfg.Logger.Warn().Err(cerr).Msg("closing partially loaded models")
		}
		return nil, err
	}
	return out, nil
}

func loadOne(ctx context.Context, root, name string, cfg Config) (challenge.Challenge, *guard, error) {
	dir := filepath.Join(root, name)
	c, err := challenge.Parse(name)
	if err != nil {
		return 0, nil, &LoadError{Kind: LoadNameParse, Path: dir, Err: err}
	}
	_, span := cfg.Tracer.Start(ctx, "registry.loadModel", trace.WithAttributes(attribute.String("challenge", c.String())))
	defer span.End()

	artifact := filepath.Join(dir, cfg.Loader.ArtifactName())
	if !fsutil.PathExists(artifact) {
		err := &LoadError{Kind: LoadModelMissing, Challenge: c, Path: artifact}
		span.SetStatus(codes.Error, err.Error())
		return 0, nil, err
	}
	start := time.Now()
	e, err := cfg.Loader.Load(dir)
	if err != nil {
		lerr := &LoadError{Kind: LoadEngine, Challenge: c, Path: dir, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, lerr.Error())
		return 0, nil, lerr
	}
	dur := time.Since(start)
	cfg.Logger.Debug().Str("challenge", c.String()).Dur("dur", dur).Msg("model loaded")
	cfg.Publisher.Publish(Event{Name: EventModelLoaded, Challenge: c.String(), Fields: map[string]any{"dur_ms": dur.Milliseconds()}})
	return c, newGuard(c, e), nil
}
