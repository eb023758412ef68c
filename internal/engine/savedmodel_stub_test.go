//go:build !tensorflow

package engine

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSavedModelStubRefusesToLoad(t *testing.T) {
	l := NewSavedModelLoader(Options{})
	if _, err := l.Load(t.TempDir()); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if err := l.Check(); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable from Check, got %v", err)
	}
}

func TestSavedModelStubLogsRejection(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()
	_, _ = NewSavedModelLoader(Options{Logger: zerolog.New(&buf)}).Load(dir)
	if !strings.Contains(buf.String(), "rejecting saved model") {
		t.Fatalf("missing rejection log line: %q", buf.String())
	}
}
