package registry

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/haze/nocap/internal/engine"
)

// PoisonPolicy decides what happens to a challenge after its engine panics.
type PoisonPolicy string

const (
	// PoisonPropagate disables the challenge: later predictions fail with ErrLockPoisoned.
	PoisonPropagate PoisonPolicy = "propagate"
	// PoisonRecover reports the panic to its caller and keeps serving.
	PoisonRecover PoisonPolicy = "recover"
)

// ParsePoisonPolicy accepts "propagate" (or empty) and "recover".
func ParsePoisonPolicy(s string) (PoisonPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PoisonPropagate):
		return PoisonPropagate, nil
	case string(PoisonRecover):
		return PoisonRecover, nil
	default:
		return "", fmt.Errorf("unknown poison policy %q", s)
	}
}

const tracerName = "github.com/haze/nocap/internal/registry"

// Config holds the registry tunables. Zero values select defaults.
type Config struct {
	// Loader turns artifact directories into engines. Required by LoadDir.
	Loader engine.Loader
	// Workers bounds the parallel load; defaults to GOMAXPROCS.
	Workers      int
	PoisonPolicy PoisonPolicy
	Logger       *zerolog.Logger
	Publisher    EventPublisher
	Tracer       trace.Tracer
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.PoisonPolicy == "" {
		c.PoisonPolicy = PoisonPropagate
	}
	if c.Logger == nil {
		l := zerolog.Nop()
		c.Logger = &l
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	if c.Tracer == nil {
		c.Tracer = otel.Tracer(tracerName)
	}
	return c
}

func (c Config) engineName() string {
	if c.Loader == nil {
		return ""
	}
	return c.Loader.Name()
}
