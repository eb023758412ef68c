// Package engine wraps loaded model artifacts behind a small inference
// surface. It is structured by backend:
//
//   - engine.go: Engine and Loader contracts, errors, backend selection.
//   - savedmodel.go: TensorFlow SavedModel backend (build tag `tensorflow`).
//   - savedmodel_stub.go: stub used when the tag is not set; it refuses to
//     load so default builds never pretend to serve.
//   - onnx.go: ONNX Runtime backend.
//   - preprocess.go: image decoding and tensor layout for the ONNX backend.
//
// An Engine is not reentrant. Callers serialize Run per engine; the registry
// does so with one guard per challenge.
package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrEntryPointMissing reports a graph lacking the expected input or output.
	ErrEntryPointMissing = errors.New("model entry point missing")
	// ErrNotServable reports an artifact that is not tagged for serving.
	ErrNotServable = errors.New("model artifact not tagged for serving")
	// ErrDependencyUnavailable reports a runtime that is not built in or cannot be initialized.
	ErrDependencyUnavailable = errors.New("inference runtime unavailable")
)

// ServeTag marks an artifact as servable.
const ServeTag = "serve"

// Engine is one loaded model artifact.
type Engine interface {
	// Run feeds input to the model and returns the affirmative and negative
	// confidences. Run mutates runtime state and must not be called
	// concurrently on the same Engine.
	Run(input string) (affirmative, negative float32, err error)
	// Close releases runtime resources. The engine is unusable afterwards.
	Close() error
}

// Loader turns an artifact directory into an Engine.
type Loader interface {
	// Name is the backend name used in configuration.
	Name() string
	// ArtifactName is the file that must exist inside an artifact directory.
	ArtifactName() string
	// Load loads the artifact rooted at dir.
	Load(dir string) (Engine, error)
	// Check reports whether the backend runtime is usable in this process.
	Check() error
}

// Options configures backend construction.
type Options struct {
	// ONNXLibrary is the onnxruntime shared library path; empty uses the
	// runtime's default lookup.
	ONNXLibrary string
	Logger      zerolog.Logger
}

// Backend names accepted by ForName.
const (
	BackendSavedModel = "savedmodel"
	BackendONNX       = "onnx"
)

// Backends lists the accepted backend names.
func Backends() []string { return []string{BackendSavedModel, BackendONNX} }

// ForName returns the loader for a backend name. An empty name selects the
// SavedModel backend.
func ForName(name string, opts Options) (Loader, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendSavedModel, "tensorflow", "tf":
		return NewSavedModelLoader(opts), nil
	case BackendONNX:
		return NewONNXLoader(opts), nil
	default:
		return nil, fmt.Errorf("unknown engine backend %q (want one of %s)", name, strings.Join(Backends(), ", "))
	}
}
