package types

import (
	"encoding/json"
	"fmt"
)

// Image payload encodings accepted by POST /recognize.
const (
	ImageTypeBase64 = "base64"
	ImageTypeBytes  = "bytes"
)

// RecognitionRequest is the body of POST /recognize.
type RecognitionRequest struct {
	// Challenge name in snake_case.
	// example: traffic_lights
	Challenge string `json:"challenge" example:"traffic_lights"`
	// Encoding of Image: "base64" or "bytes".
	// example: base64
	ImageType string `json:"image_type" example:"base64"`
	// The encoded image: a base64 string for "base64", an array of byte
	// values for "bytes".
	Image json.RawMessage `json:"image" swaggertype:"string" example:"iVBORw0KGgo="`
}

// ByteArray decodes a JSON array of integers in [0,255].
type ByteArray []byte

func (b *ByteArray) UnmarshalJSON(data []byte) error {
	var vals []int
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	out := make([]byte, len(vals))
	for i, v := range vals {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// ErrorResponse is the failure body of POST /recognize. Err is a stable tag;
// Meta carries an optional human readable detail.
type ErrorResponse struct {
	// example: generic
	Err string `json:"err" example:"generic"`
	// example: Prediction failed
	Meta string `json:"meta,omitempty" example:"Prediction failed"`
}

// Error tags used in ErrorResponse.
const (
	ErrTagInvalidRecognitionRequest = "invalid_recognition_request"
	ErrTagGeneric                   = "generic"
)

// ChallengesResponse is returned by GET /challenges.
type ChallengesResponse struct {
	// Challenges with a loaded model.
	// example: ["bus","traffic_lights"]
	Loaded []string `json:"challenges" example:"bus,traffic_lights"`
	// Every challenge name the service understands.
	Catalog []string `json:"catalog"`
}

// ChallengeStatus summarizes one loaded challenge for /status.
type ChallengeStatus struct {
	// example: bus
	Challenge string `json:"challenge" example:"bus"`
	// Requests currently running inference (0 or 1).
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Requests waiting for the challenge's model.
	// example: 3
	Waiting int `json:"waiting" example:"3"`
	// True once a panic disabled this challenge.
	Poisoned bool `json:"poisoned"`
	// Successful predictions served.
	// example: 1200
	Served uint64 `json:"served" example:"1200"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Inference backend in use.
	// example: savedmodel
	Engine string `json:"engine" example:"savedmodel"`
	// Root directory the models were loaded from.
	// example: /srv/models
	ModelsDir string `json:"models_dir,omitempty" example:"/srv/models"`
	// Per-challenge state, catalog order.
	Challenges []ChallengeStatus `json:"challenges"`
	// How long the startup load took, in milliseconds.
	// example: 5400
	LoadMillis int64 `json:"load_ms" example:"5400"`
	// Uptime of the registry in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// True after Close.
	Closed bool `json:"closed,omitempty"`
}
