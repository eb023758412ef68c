package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultAddr         = "127.0.0.1:5000"
	DefaultModelsDir    = "../models/"
	DefaultEngine       = "savedmodel"
	DefaultMaxBodyBytes = 10 << 20
	DefaultLogLevel     = "info"
	DefaultServiceName  = "nocapd"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "NOCAP_"

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr                  string   `json:"addr" yaml:"addr" toml:"addr" env:"ADDR"`
	ModelsDir             string   `json:"models_dir" yaml:"models_dir" toml:"models_dir" env:"MODELS_DIR"`
	Engine                string   `json:"engine" yaml:"engine" toml:"engine" env:"ENGINE"`
	ONNXLibrary           string   `json:"onnx_library" yaml:"onnx_library" toml:"onnx_library" env:"ONNX_LIBRARY"`
	LoadWorkers           int      `json:"load_workers" yaml:"load_workers" toml:"load_workers" env:"LOAD_WORKERS"`
	PoisonPolicy          string   `json:"poison_policy" yaml:"poison_policy" toml:"poison_policy" env:"POISON_POLICY"`
	PredictTimeoutSeconds int      `json:"predict_timeout_seconds" yaml:"predict_timeout_seconds" toml:"predict_timeout_seconds" env:"PREDICT_TIMEOUT_SECONDS"`
	MaxBodyBytes          int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes" env:"MAX_BODY_BYTES"`
	LogLevel              string   `json:"log_level" yaml:"log_level" toml:"log_level" env:"LOG_LEVEL"`
	LogFormat             string   `json:"log_format" yaml:"log_format" toml:"log_format" env:"LOG_FORMAT"`
	CORSEnabled           bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled" env:"CORS_ENABLED"`
	CORSOrigins           []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
	Tracing               Tracing  `json:"tracing" yaml:"tracing" toml:"tracing" envPrefix:"TRACING_"`
}

// Tracing configures span export.
type Tracing struct {
	Enabled      bool    `json:"enabled" yaml:"enabled" toml:"enabled" env:"ENABLED"`
	Exporter     string  `json:"exporter" yaml:"exporter" toml:"exporter" env:"EXPORTER"` // stdout|otlp|none
	OTLPEndpoint string  `json:"otlp_endpoint" yaml:"otlp_endpoint" toml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	SampleRate   float64 `json:"sample_rate" yaml:"sample_rate" toml:"sample_rate" env:"SAMPLE_RATE"`
	ServiceName  string  `json:"service_name" yaml:"service_name" toml:"service_name" env:"SERVICE_NAME"`
}

// Defaults returns a Config with every default applied.
func Defaults() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unspecified fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.Engine == "" {
		c.Engine = DefaultEngine
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultServiceName
	}
	if c.Tracing.Enabled && c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "stdout"
	}
	if c.Tracing.SampleRate <= 0 {
		c.Tracing.SampleRate = 1
	}
}

// ApplyEnv overlays NOCAP_* environment variables onto c. Unset variables
// leave the current value alone.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks values that cannot be fixed by defaults.
func (c Config) Validate() error {
	if c.LoadWorkers < 0 {
		return fmt.Errorf("load_workers must be >= 0, got %d", c.LoadWorkers)
	}
	if c.PredictTimeoutSeconds < 0 {
		return fmt.Errorf("predict_timeout_seconds must be >= 0, got %d", c.PredictTimeoutSeconds)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "json", "console":
	default:
		return fmt.Errorf("log_format must be json or console, got %q", c.LogFormat)
	}
	if c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be in (0,1], got %v", c.Tracing.SampleRate)
	}
	return nil
}

// PredictTimeout returns the per-request prediction deadline; zero means none.
func (c Config) PredictTimeout() time.Duration {
	return time.Duration(c.PredictTimeoutSeconds) * time.Second
}
