package httpapi

import (
	"net/http"

	"github.com/haze/nocap/pkg/types"
)

// wireError is a failure as the client sees it. cause stays server-side.
type wireError struct {
	Tag   string
	Meta  string
	cause error
}

func (e *wireError) Error() string {
	if e.Meta != "" {
		return e.Tag + ": " + e.Meta
	}
	return e.Tag
}

func (e *wireError) Unwrap() error { return e.cause }

func invalidRequest(cause error) *wireError {
	return &wireError{Tag: types.ErrTagInvalidRecognitionRequest, cause: cause}
}

// writeWireError writes the tagged error body. Every failure is a 500.
func writeWireError(w http.ResponseWriter, e *wireError) {
	recognizeFailures.WithLabelValues(e.Tag).Inc()
	writeJSON(w, http.StatusInternalServerError, types.ErrorResponse{Err: e.Tag, Meta: e.Meta})
}
