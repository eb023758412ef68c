package httpapi

import "time"

const defaultMaxBodyBytes = 10 << 20

// maxBodyBytes caps the /recognize body; images are carried inline.
var maxBodyBytes int64 = defaultMaxBodyBytes

// SetMaxBodyBytes sets the body cap; non-positive restores the default.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
		return
	}
	maxBodyBytes = n
}

// predictTimeout bounds how long a request may wait for and run a model.
// Zero means no limit beyond the client and server contexts.
var predictTimeout time.Duration

// SetPredictTimeout sets the per-request predict deadline (0 disables).
func SetPredictTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	predictTimeout = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods = []string{"GET", "POST", "OPTIONS"}
	corsAllowedHeaders = []string{"Content-Type", "X-Request-Id", "X-Log-Level"}
)

// SetCORSOptions configures CORS. Empty methods or headers keep the defaults.
// Call before NewMux.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	if len(methods) > 0 {
		corsAllowedMethods = append([]string(nil), methods...)
	}
	if len(headers) > 0 {
		corsAllowedHeaders = append([]string(nil), headers...)
	}
}
