package httpapi

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/haze/nocap/internal/challenge"
	"github.com/haze/nocap/pkg/types"
)

// Client-facing messages for the generic tag.
const (
	metaInvalidImage     = "Invalid image Base64"
	metaPredictionFailed = "Prediction failed"
)

// recognizeHandler godoc
//
//	@Summary		Recognize an image
//	@Description	Scores an image against one challenge. Every failure is a 500 with a tagged error body.
//	@Tags			recognize
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.RecognitionRequest	true	"Recognition request"
//	@Success		200		{object}	types.Prediction
//	@Failure		500		{object}	types.ErrorResponse
//	@Router			/recognize [post]
func recognizeHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lvl := requestLogLevel(r)

		c, image, werr := decodeRecognition(w, r)
		if werr != nil {
			writeWireError(w, werr)
			logRecognize(r, lvl, "", start, werr)
			return
		}
		if lvl >= LevelDebug && zlog != nil {
			zlog.Debug().Str("challenge", c.String()).Int("image_len", len(image)).Str("request_id", middleware.GetReqID(r.Context())).Msg("recognize start")
		}

		ctx, cancel := predictContext(r.Context())
		defer cancel()
		p, err := svc.Predict(ctx, c, image)
		if err != nil {
			werr := &wireError{Tag: types.ErrTagGeneric, Meta: metaPredictionFailed, cause: err}
			writeWireError(w, werr)
			logRecognize(r, lvl, c.String(), start, werr)
			return
		}
		writeJSON(w, http.StatusOK, p)
		logRecognize(r, lvl, c.String(), start, nil)
	}
}

// decodeRecognition validates the request and returns the challenge and the
// decoded image bytes as a string.
func decodeRecognition(w http.ResponseWriter, r *http.Request) (challenge.Challenge, string, *wireError) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return 0, "", invalidRequest(fmt.Errorf("content type %q", ct))
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.RecognitionRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		return 0, "", invalidRequest(err)
	}
	c, err := challenge.Parse(req.Challenge)
	if err != nil {
		return 0, "", invalidRequest(err)
	}
	raw := bytes.TrimSpace(req.Image)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return c, "", invalidRequest(errors.New("image missing"))
	}

	switch req.ImageType {
	case types.ImageTypeBase64:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return c, "", invalidRequest(fmt.Errorf("base64 image must be a string: %w", err))
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return c, "", &wireError{Tag: types.ErrTagGeneric, Meta: metaInvalidImage, cause: err}
		}
		return c, string(b), nil
	case types.ImageTypeBytes:
		var b types.ByteArray
		if err := json.Unmarshal(raw, &b); err != nil {
			return c, "", &wireError{Tag: types.ErrTagGeneric, Meta: metaInvalidImage, cause: err}
		}
		return c, string(b), nil
	default:
		return c, "", invalidRequest(fmt.Errorf("image_type %q", req.ImageType))
	}
}

func logRecognize(r *http.Request, lvl LogLevel, name string, start time.Time, werr *wireError) {
	if zlog == nil {
		return
	}
	if werr == nil {
		if lvl < LevelInfo {
			return
		}
		zlog.Info().Str("challenge", name).Int("status", http.StatusOK).Dur("dur", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).Msg("recognize end")
		return
	}
	if lvl < LevelError {
		return
	}
	zlog.Error().Str("challenge", name).Int("status", http.StatusInternalServerError).Dur("dur", time.Since(start)).
		Str("request_id", middleware.GetReqID(r.Context())).Str("tag", werr.Tag).Err(werr.cause).Msg("recognize end")
}
