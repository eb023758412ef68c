package registry

import (
	"errors"
	"fmt"

	"github.com/haze/nocap/internal/challenge"
)

// LoadErrorKind classifies a failed LoadDir. Every kind is fatal to the load.
type LoadErrorKind int

const (
	// LoadIO: the models directory could not be read.
	LoadIO LoadErrorKind = iota + 1
	// LoadModelMissing: a challenge directory lacks its artifact file.
	LoadModelMissing
	// LoadEngine: the runtime rejected an artifact.
	LoadEngine
	// LoadNameParse: a name passed the catalog filter but did not parse.
	LoadNameParse
)

func (k LoadErrorKind) String() string {
	switch k {
	case LoadIO:
		return "io"
	case LoadModelMissing:
		return "model_missing"
	case LoadEngine:
		return "engine"
	case LoadNameParse:
		return "name_parse"
	default:
		return "unknown"
	}
}

// LoadError describes why LoadDir failed.
type LoadError struct {
	Kind      LoadErrorKind
	Challenge challenge.Challenge // set for LoadModelMissing and LoadEngine
	Path      string
	Err       error
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case LoadIO:
		return fmt.Sprintf("read models dir %s: %v", e.Path, e.Err)
	case LoadModelMissing:
		return fmt.Sprintf("model missing for challenge %s: %s not found", e.Challenge, e.Path)
	case LoadEngine:
		return fmt.Sprintf("load model for challenge %s: %v", e.Challenge, e.Err)
	case LoadNameParse:
		return fmt.Sprintf("parse model name %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("load models: %v", e.Err)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }

// AsLoadError returns the LoadError in err's chain, if any.
func AsLoadError(err error) (*LoadError, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// IsModelMissing reports whether err is a LoadError for a missing artifact.
func IsModelMissing(err error) bool {
	le, ok := AsLoadError(err)
	return ok && le.Kind == LoadModelMissing
}

var (
	// ErrChallengeNotLoaded is returned when no model is registered for a challenge.
	ErrChallengeNotLoaded = errors.New("challenge not loaded")
	// ErrLockPoisoned is returned for a challenge disabled by an earlier engine panic.
	ErrLockPoisoned = errors.New("challenge lock poisoned")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("registry closed")
	// ErrEnginePanic marks an EngineError caused by a recovered panic.
	ErrEnginePanic = errors.New("engine panicked")
)

func errNotLoaded(c challenge.Challenge) error {
	return fmt.Errorf("%w: %s", ErrChallengeNotLoaded, c)
}

func errPoisoned(c challenge.Challenge) error {
	return fmt.Errorf("%w: %s", ErrLockPoisoned, c)
}

// IsChallengeNotLoaded reports whether err means the challenge has no model.
func IsChallengeNotLoaded(err error) bool { return errors.Is(err, ErrChallengeNotLoaded) }

// IsLockPoisoned reports whether err means the challenge was disabled by a panic.
func IsLockPoisoned(err error) bool { return errors.Is(err, ErrLockPoisoned) }

// EngineError wraps a failure inside an engine's Run, including recovered panics.
type EngineError struct {
	Challenge challenge.Challenge
	Err       error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("predict %s: %v", e.Challenge, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// IsEngineError reports whether err came from the inference runtime.
func IsEngineError(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}
