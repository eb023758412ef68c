package registry

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nocap",
			Subsystem: "registry",
			Name:      "predictions_total",
			Help:      "Predictions by challenge and outcome",
		},
		[]string{"challenge", "outcome"},
	)

	predictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nocap",
			Subsystem: "registry",
			Name:      "prediction_duration_seconds",
			Help:      "Time spent inside the engine per prediction",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"challenge"},
	)

	lockWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nocap",
			Subsystem: "registry",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for a challenge's model",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
		[]string{"challenge"},
	)

	modelsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nocap",
			Subsystem: "registry",
			Name:      "models_loaded",
			Help:      "Models held by the most recently loaded registry",
		},
	)

	loadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nocap",
			Subsystem: "registry",
			Name:      "load_duration_seconds",
			Help:      "Duration of LoadDir",
			Buckets:   prometheus.ExponentialBuckets(0.01, 3, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(predictionsTotal, predictionDuration, lockWait, modelsLoaded, loadDuration)
}

// outcomeLabel maps a Predict result onto a low-cardinality label.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsChallengeNotLoaded(err):
		return "not_loaded"
	case IsLockPoisoned(err):
		return "poisoned"
	case errors.Is(err, ErrClosed):
		return "closed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case IsEngineError(err):
		return "engine"
	default:
		return "error"
	}
}
