//go:build !tensorflow

package engine

// This file is compiled when the `tensorflow` build tag is NOT set, keeping
// default builds free of libtensorflow. The real loader lives in
// savedmodel.go.

// SavedModelArtifact is the graph definition file of a SavedModel directory.
const SavedModelArtifact = "saved_model.pb"

type savedModelLoader struct {
	opts Options
}

// NewSavedModelLoader returns the SavedModel loader. In this build it refuses
// to load anything.
func NewSavedModelLoader(opts Options) Loader {
	return &savedModelLoader{opts: opts}
}

func (l *savedModelLoader) Name() string         { return BackendSavedModel }
func (l *savedModelLoader) ArtifactName() string { return SavedModelArtifact }

func (l *savedModelLoader) Load(dir string) (Engine, error) {
	err := l.Check()
	l.opts.Logger.Warn().Err(err).Str("dir", dir).Msg("rejecting saved model")
	return nil, err
}

func (l *savedModelLoader) Check() error {
	return &dependencyError{msg: "tensorflow support not built (missing 'tensorflow' build tag)"}
}

type dependencyError struct{ msg string }

func (e *dependencyError) Error() string { return e.msg }
func (e *dependencyError) Unwrap() error { return ErrDependencyUnavailable }
