package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/haze/nocap/internal/common/fsutil"
)

// ONNX artifact layout: the model graph plus optional metadata.
const (
	ONNXArtifact = "model.onnx"
	ONNXMetadata = "metadata.json"
)

// ONNXModelMetadata describes the tensors of an exported ONNX model.
type ONNXModelMetadata struct {
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Tags        []string `json:"tags"`
}

func defaultONNXMetadata() ONNXModelMetadata {
	return ONNXModelMetadata{
		InputName:   "input",
		OutputName:  "scores",
		InputShape:  []int64{1, 3, 224, 224},
		OutputShape: []int64{1, 2},
	}
}

// readONNXMetadata reads metadata.json from dir, filling unset fields with
// defaults. A missing file yields the defaults.
func readONNXMetadata(dir string) (ONNXModelMetadata, error) {
	md := defaultONNXMetadata()
	b, err := os.ReadFile(filepath.Join(dir, ONNXMetadata))
	if errors.Is(err, os.ErrNotExist) {
		return md, nil
	}
	if err != nil {
		return md, fmt.Errorf("read metadata: %w", err)
	}
	var raw ONNXModelMetadata
	if err := json.Unmarshal(b, &raw); err != nil {
		return md, fmt.Errorf("parse metadata: %w", err)
	}
	if raw.InputName != "" {
		md.InputName = raw.InputName
	}
	if raw.OutputName != "" {
		md.OutputName = raw.OutputName
	}
	if len(raw.InputShape) > 0 {
		md.InputShape = raw.InputShape
	}
	if len(raw.OutputShape) > 0 {
		md.OutputShape = raw.OutputShape
	}
	md.Tags = raw.Tags
	return md, nil
}

func (md ONNXModelMetadata) validate() error {
	if len(md.Tags) > 0 && !slices.Contains(md.Tags, ServeTag) {
		return fmt.Errorf("%w: tags %v", ErrNotServable, md.Tags)
	}
	if len(md.InputShape) != 4 || md.InputShape[0] != 1 || md.InputShape[1] != 3 {
		return fmt.Errorf("input shape %v: want [1 3 H W]", md.InputShape)
	}
	if md.InputShape[2] <= 0 || md.InputShape[3] <= 0 {
		return fmt.Errorf("input shape %v: non-positive spatial size", md.InputShape)
	}
	n := int64(1)
	for _, d := range md.OutputShape {
		n *= d
	}
	if n < 2 {
		return fmt.Errorf("output shape %v: need at least two scores", md.OutputShape)
	}
	return nil
}

// The onnxruntime environment is process-wide and initialized once.
var ortEnv struct {
	once sync.Once
	err  error
}

func initONNXRuntime(library string) error {
	ortEnv.once.Do(func() {
		if library != "" {
			ort.SetSharedLibraryPath(library)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			ortEnv.err = fmt.Errorf("%w: initialize onnxruntime: %v", ErrDependencyUnavailable, err)
		}
	})
	return ortEnv.err
}

type onnxLoader struct {
	opts Options
}

// NewONNXLoader returns a loader for directories holding model.onnx.
func NewONNXLoader(opts Options) Loader {
	return &onnxLoader{opts: opts}
}

func (l *onnxLoader) Name() string         { return BackendONNX }
func (l *onnxLoader) ArtifactName() string { return ONNXArtifact }

func (l *onnxLoader) Check() error {
	if l.opts.ONNXLibrary != "" && !fsutil.PathExists(l.opts.ONNXLibrary) {
		return fmt.Errorf("%w: onnxruntime library %s not found", ErrDependencyUnavailable, l.opts.ONNXLibrary)
	}
	if err := initONNXRuntime(l.opts.ONNXLibrary); err != nil {
		return err
	}
	l.opts.Logger.Debug().Str("library", l.opts.ONNXLibrary).Msg("onnxruntime ready")
	return nil
}

func (l *onnxLoader) Load(dir string) (Engine, error) {
	md, err := readONNXMetadata(dir)
	if err == nil {
		err = md.validate()
	}
	if err != nil {
		l.opts.Logger.Warn().Err(err).Str("dir", dir).Msg("rejecting onnx model")
		return nil, err
	}
	if err := initONNXRuntime(l.opts.ONNXLibrary); err != nil {
		return nil, err
	}
	l.opts.Logger.Debug().Str("dir", dir).Str("input", md.InputName).Ints64("input_shape", md.InputShape).
		Str("output", md.OutputName).Msg("creating onnx session")

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(md.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(md.OutputShape...))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(filepath.Join(dir, ONNXArtifact),
		[]string{md.InputName}, []string{md.OutputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return &onnxEngine{
		session: session,
		input:   input,
		output:  output,
		height:  int(md.InputShape[2]),
		width:   int(md.InputShape[3]),
	}, nil
}

// onnxEngine binds one session to its pre-allocated tensors. Run writes the
// shared input tensor, so concurrent calls would corrupt each other.
type onnxEngine struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	height  int
	width   int
}

func (e *onnxEngine) Run(input string) (float32, float32, error) {
	if e.session == nil {
		return 0, 0, errors.New("onnx engine closed")
	}
	img, err := decodeImage(input)
	if err != nil {
		return 0, 0, err
	}
	if err := fillCHW(e.input.GetData(), img, e.width, e.height); err != nil {
		return 0, 0, err
	}
	if err := e.session.Run(); err != nil {
		return 0, 0, fmt.Errorf("inference failed: %w", err)
	}
	out := e.output.GetData()
	if len(out) < 2 {
		return 0, 0, fmt.Errorf("%w: output has %d values", ErrEntryPointMissing, len(out))
	}
	return out[0], out[1], nil
}

func (e *onnxEngine) Close() error {
	var errs []error
	if e.session != nil {
		errs = append(errs, e.session.Destroy())
		e.session = nil
	}
	if e.input != nil {
		errs = append(errs, e.input.Destroy())
		e.input = nil
	}
	if e.output != nil {
		errs = append(errs, e.output.Destroy())
		e.output = nil
	}
	return errors.Join(errs...)
}
