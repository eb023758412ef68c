package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haze/nocap/internal/challenge"
	"github.com/haze/nocap/internal/engine"
)

const fakeArtifact = "model.bin"

// fakeEngine returns fixed scores and tracks how many callers are inside Run.
type fakeEngine struct {
	aff, neg float32
	err      error
	panicMsg string
	block    chan struct{} // Run waits on it when non-nil
	entered  chan struct{} // signaled on entry when non-nil
	delay    time.Duration

	active    atomic.Int32
	maxActive atomic.Int32
	calls     atomic.Int32
	closed    atomic.Bool
	closeErr  error
}

func (f *fakeEngine) Run(input string) (float32, float32, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxActive.Load()
		if n <= m || f.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	f.calls.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return 0, 0, f.err
	}
	return f.aff, f.neg, nil
}

func (f *fakeEngine) Close() error {
	f.closed.Store(true)
	return f.closeErr
}

// fakeLoader hands out fakeEngines keyed by directory base name.
type fakeLoader struct {
	mu      sync.Mutex
	engines map[string]*fakeEngine
	failOn  map[string]error
	loaded  []*fakeEngine
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{engines: map[string]*fakeEngine{}, failOn: map[string]error{}}
}

func (l *fakeLoader) Name() string         { return "fake" }
func (l *fakeLoader) ArtifactName() string { return fakeArtifact }
func (l *fakeLoader) Check() error         { return nil }

func (l *fakeLoader) Load(dir string) (engine.Engine, error) {
	name := filepath.Base(dir)
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.failOn[name]; err != nil {
		return nil, err
	}
	e, ok := l.engines[name]
	if !ok {
		e = &fakeEngine{aff: 0.5, neg: 0.5}
		l.engines[name] = e
	}
	l.loaded = append(l.loaded, e)
	return e, nil
}

func (l *fakeLoader) loadedEngines() []*fakeEngine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*fakeEngine(nil), l.loaded...)
}

// makeModelsDir lays out one artifact directory per challenge.
func makeModelsDir(t *testing.T, cs ...challenge.Challenge) string {
	t.Helper()
	root := t.TempDir()
	for _, c := range cs {
		dir := filepath.Join(root, c.String())
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, fakeArtifact), []byte("x"), 0o644); err != nil {
			t.Fatalf("write artifact: %v", err)
		}
	}
	return root
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

func mustLoad(t *testing.T, root string, cfg Config) *Registry {
	t.Helper()
	r, err := LoadDir(testCtx(t), root, cfg)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	t.Cleanup(func() { _ = r.Close(context.Background()) })
	return r
}

var errBoom = errors.New("boom")
