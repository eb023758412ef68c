package httpapi

import (
	"testing"
	"time"
)

func TestSetMaxBodyBytes_DefaultWhenNonPositive(t *testing.T) {
	SetMaxBodyBytes(-1)
	if maxBodyBytes != 10<<20 {
		t.Fatalf("expected default 10MiB, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(1234)
	if maxBodyBytes != 1234 {
		t.Fatalf("expected 1234, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(0)
}

func TestSetPredictTimeout_NormalizesNegativeToZero(t *testing.T) {
	SetPredictTimeout(-time.Second)
	if predictTimeout != 0 {
		t.Fatalf("expected 0, got %v", predictTimeout)
	}
	SetPredictTimeout(3 * time.Second)
	if predictTimeout != 3*time.Second {
		t.Fatalf("expected 3s, got %v", predictTimeout)
	}
	SetPredictTimeout(0)
}

func TestSetCORSOptions_KeepsDefaultMethods(t *testing.T) {
	SetCORSOptions(true, []string{"*"}, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)
	if len(corsAllowedMethods) == 0 || len(corsAllowedHeaders) == 0 {
		t.Fatalf("defaults dropped: %v %v", corsAllowedMethods, corsAllowedHeaders)
	}
}
