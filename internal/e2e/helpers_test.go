package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/haze/nocap/internal/engine"
	"github.com/haze/nocap/internal/httpapi"
	"github.com/haze/nocap/internal/registry"
)

const stubArtifact = "model.json"

// stubModel is the artifact format understood by stubLoader.
type stubModel struct {
	Affirmative float32 `json:"affirmative"`
	Negative    float32 `json:"negative"`
	Panic       bool    `json:"panic,omitempty"`
}

type stubLoader struct{}

func (stubLoader) Name() string         { return "stub" }
func (stubLoader) ArtifactName() string { return stubArtifact }
func (stubLoader) Check() error         { return nil }

func (stubLoader) Load(dir string) (engine.Engine, error) {
	b, err := os.ReadFile(filepath.Join(dir, stubArtifact))
	if err != nil {
		return nil, err
	}
	var m stubModel
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", dir, err)
	}
	return &stubEngine{m: m}, nil
}

type stubEngine struct{ m stubModel }

func (e *stubEngine) Run(string) (float32, float32, error) {
	if e.m.Panic {
		panic("stub engine panic")
	}
	return e.m.Affirmative, e.m.Negative, nil
}

func (e *stubEngine) Close() error { return nil }

// createModelsDir writes one stub artifact per challenge name.
func createModelsDir(t *testing.T, models map[string]stubModel) string {
	t.Helper()
	root := t.TempDir()
	for name, m := range models {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
		b, _ := json.Marshal(m)
		if err := os.WriteFile(filepath.Join(dir, stubArtifact), b, 0o644); err != nil {
			t.Fatalf("write artifact: %v", err)
		}
	}
	return root
}

func newServerForDir(t *testing.T, modelsDir string) (*httptest.Server, *registry.Registry) {
	t.Helper()
	reg, err := registry.LoadDir(t.Context(), modelsDir, registry.Config{Loader: stubLoader{}})
	if err != nil {
		t.Fatalf("load models: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(reg))
	t.Cleanup(func() {
		srv.Close()
		_ = reg.Close(context.Background())
	})
	return srv, reg
}
