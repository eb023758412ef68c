package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haze/nocap/internal/challenge"
	"github.com/haze/nocap/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *registry.Registry implements it.
type Service interface {
	Challenges() []challenge.Challenge
	Status() types.StatusResponse
	Predict(ctx context.Context, c challenge.Challenge, image string) (types.Prediction, error)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)

	r.Post("/recognize", recognizeHandler(svc))
	r.Get("/challenges", challengesHandler(svc))
	r.Get("/status", statusHandler(svc))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// challengesHandler godoc
//
//	@Summary		List challenges
//	@Description	Challenges with a loaded model, and the full catalog.
//	@Tags			challenges
//	@Produce		json
//	@Success		200	{object}	types.ChallengesResponse
//	@Router			/challenges [get]
func challengesHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loaded := svc.Challenges()
		resp := types.ChallengesResponse{Loaded: make([]string, len(loaded)), Catalog: challenge.Names()}
		for i, c := range loaded {
			resp.Loaded[i] = c.String()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// statusHandler godoc
//
//	@Summary		Registry status
//	@Description	Per-challenge inflight, waiting, served and poisoned state.
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	types.StatusResponse
//	@Router			/status [get]
func statusHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
