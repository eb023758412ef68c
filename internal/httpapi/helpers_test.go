package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haze/nocap/internal/challenge"
	"github.com/haze/nocap/pkg/types"
)

type mockService struct {
	loaded     []challenge.Challenge
	status     types.StatusResponse
	ready      bool
	pred       types.Prediction
	predictErr error

	gotChallenge challenge.Challenge
	gotImage     string
	gotCtx       context.Context
}

func (m *mockService) Challenges() []challenge.Challenge { return append([]challenge.Challenge(nil), m.loaded...) }
func (m *mockService) Status() types.StatusResponse      { return m.status }
func (m *mockService) Ready() bool                       { return m.ready }
func (m *mockService) Predict(ctx context.Context, c challenge.Challenge, image string) (types.Prediction, error) {
	m.gotChallenge, m.gotImage, m.gotCtx = c, image, ctx
	if m.predictErr != nil {
		return types.Prediction{}, m.predictErr
	}
	return m.pred, nil
}

func postRecognize(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/recognize", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("json: %v (%s)", err, w.Body.String())
	}
	return e
}
