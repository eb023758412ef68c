//go:build tensorflow

package engine

import (
	"fmt"
	"os"
	"sync"

	tf "github.com/wamuir/graft/tensorflow"
)

// SavedModelArtifact is the graph definition file of a SavedModel directory.
const SavedModelArtifact = "saved_model.pb"

// Operation names the reference models are exported with.
const (
	savedModelInputOp  = "Placeholder"
	savedModelOutputOp = "scores"
)

// quietTensorFlow lowers libtensorflow's C++ logging once, before the first load.
var quietTensorFlow sync.Once

type savedModelLoader struct {
	opts Options
}

// NewSavedModelLoader returns a loader for TensorFlow SavedModel directories
// exported with the "serve" tag.
func NewSavedModelLoader(opts Options) Loader {
	return &savedModelLoader{opts: opts}
}

func (l *savedModelLoader) Name() string         { return BackendSavedModel }
func (l *savedModelLoader) ArtifactName() string { return SavedModelArtifact }
func (l *savedModelLoader) Check() error         { return nil }

func (l *savedModelLoader) Load(dir string) (Engine, error) {
	quietTensorFlow.Do(func() {
		_ = os.Setenv("TF_CPP_MIN_LOG_LEVEL", "3")
	})
	m, err := tf.LoadSavedModel(dir, []string{ServeTag}, nil)
	if err != nil {
		l.opts.Logger.Warn().Err(err).Str("dir", dir).Msg("rejecting saved model")
		return nil, fmt.Errorf("load saved model %s: %w", dir, err)
	}
	l.opts.Logger.Debug().Str("dir", dir).Str("tag", ServeTag).Msg("saved model loaded")
	return &savedModelEngine{session: m.Session, graph: m.Graph}, nil
}

// savedModelEngine owns one TensorFlow session and its graph.
type savedModelEngine struct {
	session *tf.Session
	graph   *tf.Graph
}

func (e *savedModelEngine) Run(input string) (float32, float32, error) {
	in := e.graph.Operation(savedModelInputOp)
	if in == nil {
		return 0, 0, fmt.Errorf("%w: operation %q", ErrEntryPointMissing, savedModelInputOp)
	}
	out := e.graph.Operation(savedModelOutputOp)
	if out == nil {
		return 0, 0, fmt.Errorf("%w: operation %q", ErrEntryPointMissing, savedModelOutputOp)
	}
	t, err := tf.NewTensor([]string{input})
	if err != nil {
		return 0, 0, fmt.Errorf("input tensor: %w", err)
	}
	res, err := e.session.Run(
		map[tf.Output]*tf.Tensor{in.Output(0): t},
		[]tf.Output{out.Output(0)},
		nil,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("session run: %w", err)
	}
	if len(res) == 0 {
		return 0, 0, fmt.Errorf("session run: no output for %q", savedModelOutputOp)
	}
	return scorePair(res[0].Value())
}

func (e *savedModelEngine) Close() error {
	if e.session == nil {
		return nil
	}
	err := e.session.Close()
	e.session = nil
	return err
}

// scorePair extracts the first two scores from a [2] or [1,2] float tensor.
func scorePair(v any) (float32, float32, error) {
	switch s := v.(type) {
	case []float32:
		if len(s) >= 2 {
			return s[0], s[1], nil
		}
	case [][]float32:
		if len(s) > 0 && len(s[0]) >= 2 {
			return s[0][0], s[0][1], nil
		}
	}
	return 0, 0, fmt.Errorf("unexpected scores tensor %T", v)
}
