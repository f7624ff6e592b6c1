// Package config loads service settings from an optional TOML file, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         string `toml:"port"`
	DatabasePath string `toml:"database_path"`

	LogLevel  string `toml:"log_level"`  // debug, info, warn or error
	LogFormat string `toml:"log_format"` // text or json

	// DefaultTurnaroundWorkingDays applies to premises created without one.
	DefaultTurnaroundWorkingDays int           `toml:"default_turnaround_working_days"`
	ShutdownTimeout              time.Duration `toml:"shutdown_timeout"`

	Telemetry Telemetry `toml:"telemetry"`
}

const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
	ExporterNone   = "none"
)

// Telemetry is the [telemetry] table: where traces and metrics are sent.
type Telemetry struct {
	ServiceName    string `toml:"service_name"`
	ServiceVersion string `toml:"service_version"`
	Environment    string `toml:"environment"`
	Exporter       string `toml:"exporter"`      // stdout, otlp or none
	OTLPEndpoint   string `toml:"otlp_endpoint"` // host:port, empty for the exporter default
}

// Insecure reports whether OTLP is sent over plain HTTP. Only development
// collectors run without TLS.
func (t Telemetry) Insecure() bool {
	return t.Environment == "development"
}

func defaults() Config {
	return Config{
		Port:                         "8080",
		DatabasePath:                 "cas3.db",
		LogLevel:                     "info",
		LogFormat:                    "text",
		DefaultTurnaroundWorkingDays: 2,
		ShutdownTimeout:              5 * time.Second,
		Telemetry: Telemetry{
			ServiceName:    "cas3",
			ServiceVersion: "0.1.0",
			Environment:    "development",
			Exporter:       ExporterStdout,
		},
	}
}

// Load builds a Config. path names a TOML file and may be empty; envFiles
// are .env files that are skipped when missing.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := defaults()

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decoding %s: %w", path, err)
		}
	}

	cfg.Port = envOrDefault("PORT", cfg.Port)
	cfg.DatabasePath = envOrDefault("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Telemetry.ServiceName = envOrDefault("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
	cfg.Telemetry.ServiceVersion = envOrDefault("OTEL_SERVICE_VERSION", cfg.Telemetry.ServiceVersion)
	cfg.Telemetry.Environment = envOrDefault("OTEL_ENVIRONMENT", cfg.Telemetry.Environment)
	cfg.Telemetry.Exporter = envOrDefault("OTEL_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.OTLPEndpoint = envOrDefault("OTEL_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	if v := os.Getenv("DEFAULT_TURNAROUND_WORKING_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("DEFAULT_TURNAROUND_WORKING_DAYS: %w", err)
		}
		cfg.DefaultTurnaroundWorkingDays = n
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is empty"))
	}
	if c.DefaultTurnaroundWorkingDays < 0 {
		errs = append(errs, fmt.Errorf("default_turnaround_working_days %d is negative", c.DefaultTurnaroundWorkingDays))
	}
	if _, err := c.level(); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unsupported log_format %q (use \"text\" or \"json\")", c.LogFormat))
	}
	if c.Telemetry.ServiceName == "" {
		errs = append(errs, errors.New("telemetry.service_name is empty"))
	}
	switch c.Telemetry.Exporter {
	case ExporterStdout, ExporterOTLP, ExporterNone:
	default:
		errs = append(errs, fmt.Errorf("unsupported telemetry.exporter %q (use %q, %q or %q)",
			c.Telemetry.Exporter, ExporterStdout, ExporterOTLP, ExporterNone))
	}
	return errors.Join(errs...)
}

func (c Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Logger builds the service logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
