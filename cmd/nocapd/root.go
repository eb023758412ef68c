package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/haze/nocap/internal/config"
	"github.com/haze/nocap/internal/engine"
)

// app is the state shared by every subcommand once flags are resolved.
type app struct {
	configPath string
	cfg        config.Config
	log        zerolog.Logger
}

// flagBinding copies a flag onto the config when the flag was set.
type flagBinding struct {
	name  string
	apply func(fs *pflag.FlagSet, c *config.Config) error
}

func stringFlag(name string, dst func(*config.Config) *string) flagBinding {
	return flagBinding{name, func(fs *pflag.FlagSet, c *config.Config) error {
		v, err := fs.GetString(name)
		*dst(c) = v
		return err
	}}
}

func intFlag(name string, dst func(*config.Config) *int) flagBinding {
	return flagBinding{name, func(fs *pflag.FlagSet, c *config.Config) error {
		v, err := fs.GetInt(name)
		*dst(c) = v
		return err
	}}
}

func boolFlag(name string, dst func(*config.Config) *bool) flagBinding {
	return flagBinding{name, func(fs *pflag.FlagSet, c *config.Config) error {
		v, err := fs.GetBool(name)
		*dst(c) = v
		return err
	}}
}

var bindings = []flagBinding{
	stringFlag("addr", func(c *config.Config) *string { return &c.Addr }),
	stringFlag("models-dir", func(c *config.Config) *string { return &c.ModelsDir }),
	stringFlag("engine", func(c *config.Config) *string { return &c.Engine }),
	stringFlag("onnx-library", func(c *config.Config) *string { return &c.ONNXLibrary }),
	intFlag("load-workers", func(c *config.Config) *int { return &c.LoadWorkers }),
	stringFlag("poison-policy", func(c *config.Config) *string { return &c.PoisonPolicy }),
	intFlag("predict-timeout-seconds", func(c *config.Config) *int { return &c.PredictTimeoutSeconds }),
	stringFlag("log-level", func(c *config.Config) *string { return &c.LogLevel }),
	stringFlag("log-format", func(c *config.Config) *string { return &c.LogFormat }),
	boolFlag("cors-enabled", func(c *config.Config) *bool { return &c.CORSEnabled }),
	boolFlag("tracing-enabled", func(c *config.Config) *bool { return &c.Tracing.Enabled }),
	stringFlag("tracing-exporter", func(c *config.Config) *string { return &c.Tracing.Exporter }),
	stringFlag("otlp-endpoint", func(c *config.Config) *string { return &c.Tracing.OTLPEndpoint }),
	{"max-body-bytes", func(fs *pflag.FlagSet, c *config.Config) error {
		v, err := fs.GetInt64("max-body-bytes")
		c.MaxBodyBytes = v
		return err
	}},
	{"cors-origins", func(fs *pflag.FlagSet, c *config.Config) error {
		v, err := fs.GetString("cors-origins")
		c.CORSOrigins = splitCSV(v)
		return err
	}},
}

func newRootCmd() *cobra.Command { return newRootCmdWith(&app{}) }

// newRootCmdWith builds the command tree around a; tests inspect a afterwards.
func newRootCmdWith(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "nocapd",
		Short:         "Serve captcha challenge image recognition models",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to config file (.yaml/.yml, .json, .toml)")
	pf.String("addr", config.DefaultAddr, "HTTP listen address")
	pf.String("models-dir", config.DefaultModelsDir, "Directory holding one model directory per challenge")
	pf.String("engine", config.DefaultEngine, "Inference backend: "+strings.Join(engine.Backends(), "|"))
	pf.String("onnx-library", "", "Path to the onnxruntime shared library")
	pf.Int("load-workers", 0, "Parallel model loads (0 = GOMAXPROCS)")
	pf.String("poison-policy", "propagate", "After an engine panic: propagate (disable challenge) or recover")
	pf.Int("predict-timeout-seconds", 0, "Per-request predict deadline in seconds (0 = none)")
	pf.Int64("max-body-bytes", config.DefaultMaxBodyBytes, "Maximum /recognize body size in bytes")
	pf.String("log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error")
	pf.String("log-format", "", "Log format: json|console (default console on a terminal)")
	pf.Bool("cors-enabled", false, "Enable CORS")
	pf.String("cors-origins", "", "Comma-separated allowed CORS origins")
	pf.Bool("tracing-enabled", false, "Enable OpenTelemetry tracing")
	pf.String("tracing-exporter", "", "Trace exporter: stdout|otlp|none")
	pf.String("otlp-endpoint", "", "OTLP gRPC collector endpoint")

	// Precedence: flags > env > config file > defaults.
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(a.configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		fs := cmd.Flags()
		for _, b := range bindings {
			if !fs.Changed(b.name) {
				continue
			}
			if err := b.apply(fs, &cfg); err != nil {
				return fmt.Errorf("flag --%s: %w", b.name, err)
			}
		}
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		a.cfg = cfg
		a.log, err = newLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
		return err
	}

	root.AddCommand(
		newServeCmd(a),
		newChallengesCmd(a),
		newCheckCmd(a),
		newPredictCmd(a),
		newEvaluateCmd(a),
	)
	return root
}

// splitCSV splits a comma-separated list, trimming blanks and dropping empties.
func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
