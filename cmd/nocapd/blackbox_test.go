//go:build blackbox

package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/cmd/nocapd/blackbox_test.go
	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

func buildBinary(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "nocapd")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/nocapd")
	cmd.Dir = projectRootFromThisFile(t)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(out))
	}
	return binPath
}

func runBinary(t *testing.T, bin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err = cmd.Run()
	return out.String(), errOut.String(), err
}

func TestBlackbox_ChallengesListsCatalog(t *testing.T) {
	bin := buildBinary(t)
	out, stderr, err := runBinary(t, bin, "challenges", "--models-dir", t.TempDir())
	if err != nil {
		t.Fatalf("challenges: %v\n%s", err, stderr)
	}
	for _, name := range []string{"a_fire_hydrant", "mountains_or_hills", "traffic_lights"} {
		if !strings.Contains(out, name) {
			t.Fatalf("missing %s in output:\n%s", name, out)
		}
	}
}

// A default build carries no TensorFlow runtime, so serving must refuse to
// start instead of listening without models.
func TestBlackbox_ServeRefusesWithoutRuntime(t *testing.T) {
	bin := buildBinary(t)
	_, stderr, err := runBinary(t, bin, "serve", "--models-dir", t.TempDir(), "--addr", "127.0.0.1:0", "--log-format", "json")
	if err == nil {
		t.Fatalf("expected serve to fail without a runtime")
	}
	if !strings.Contains(stderr, "tensorflow support not built") {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
}
