package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haze/nocap/internal/engine"
	"github.com/haze/nocap/internal/httpapi"
	"github.com/haze/nocap/internal/registry"
	"github.com/haze/nocap/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load every model and serve POST /recognize (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

// loadRegistry resolves the engine backend and loads every model under the
// configured models directory.
func (a *app) loadRegistry(ctx context.Context) (*registry.Registry, error) {
	loader, err := engine.ForName(a.cfg.Engine, engine.Options{
		ONNXLibrary: a.cfg.ONNXLibrary,
		Logger:      a.log.With().Str("component", "engine").Logger(),
	})
	if err != nil {
		return nil, err
	}
	if err := loader.Check(); err != nil {
		return nil, fmt.Errorf("engine %s: %w", loader.Name(), err)
	}
	policy, err := registry.ParsePoisonPolicy(a.cfg.PoisonPolicy)
	if err != nil {
		return nil, err
	}
	rlog := a.log.With().Str("component", "registry").Logger()
	return registry.LoadDir(ctx, a.cfg.ModelsDir, registry.Config{
		Loader:       loader,
		Workers:      a.cfg.LoadWorkers,
		PoisonPolicy: policy,
		Logger:       &rlog,
		Publisher:    registry.NewLogPublisher(rlog),
	})
}

func (a *app) startTracing(ctx context.Context) (*tracing.Provider, error) {
	t := a.cfg.Tracing
	return tracing.NewProvider(ctx, tracing.Config{
		Enabled:      t.Enabled,
		Exporter:     t.Exporter,
		OTLPEndpoint: t.OTLPEndpoint,
		SampleRate:   t.SampleRate,
		ServiceName:  t.ServiceName,
	})
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := a.startTracing(ctx)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			a.log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	reg, err := a.loadRegistry(ctx)
	if err != nil {
		return fmt.Errorf("failed to load models: %w", err)
	}

	httpapi.SetLogger(a.log.With().Str("component", "http").Logger())
	httpapi.SetMaxBodyBytes(a.cfg.MaxBodyBytes)
	httpapi.SetPredictTimeout(a.cfg.PredictTimeout())
	httpapi.SetCORSOptions(a.cfg.CORSEnabled, a.cfg.CORSOrigins, nil, nil)
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           httpapi.NewMux(reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Addr).Str("models_dir", a.cfg.ModelsDir).
			Strs("challenges", challengeNames(reg)).Msg("nocapd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down")
	case serveErr = <-errCh:
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		a.log.Warn().Err(err).Msg("graceful shutdown error")
	}
	if err := reg.Close(sctx); err != nil {
		a.log.Warn().Err(err).Msg("closing models")
	}
	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	return nil
}

func challengeNames(reg *registry.Registry) []string {
	cs := reg.Challenges()
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}
