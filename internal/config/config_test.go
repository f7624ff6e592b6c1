package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DatabasePath != "cas3.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "cas3.db")
	}
	if cfg.DefaultTurnaroundWorkingDays != 2 {
		t.Errorf("DefaultTurnaroundWorkingDays = %d, want 2", cfg.DefaultTurnaroundWorkingDays)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
	}
	if cfg.Telemetry.ServiceName != "cas3" || cfg.Telemetry.Exporter != config.ExporterStdout {
		t.Errorf("Telemetry = %+v, want cas3 exporting to stdout", cfg.Telemetry)
	}
	if !cfg.Telemetry.Insecure() {
		t.Error("development telemetry should use plain HTTP")
	}
}

func TestLoad_TelemetryTable(t *testing.T) {
	path := writeFile(t, "cas3.toml", `
[telemetry]
service_name = "cas3-leeds"
environment = "production"
exporter = "otlp"
otlp_endpoint = "collector:4318"
`)
	t.Setenv("OTEL_SERVICE_VERSION", "2.1.0")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tel := cfg.Telemetry
	if tel.ServiceName != "cas3-leeds" || tel.Exporter != config.ExporterOTLP || tel.OTLPEndpoint != "collector:4318" {
		t.Errorf("Telemetry = %+v", tel)
	}
	if tel.ServiceVersion != "2.1.0" {
		t.Errorf("ServiceVersion = %q, want the OTEL_SERVICE_VERSION override", tel.ServiceVersion)
	}
	if tel.Insecure() {
		t.Error("production telemetry should not use plain HTTP")
	}

	t.Setenv("OTEL_EXPORTER", "none")
	cfg, err = config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telemetry.Exporter != config.ExporterNone {
		t.Errorf("Exporter = %q, want env to override the file", cfg.Telemetry.Exporter)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	path := writeFile(t, "cas3.toml", `
port = "9090"
database_path = "/var/lib/cas3/cas3.db"
log_format = "json"
default_turnaround_working_days = 3
shutdown_timeout = "15s"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.DatabasePath != "/var/lib/cas3/cas3.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.DefaultTurnaroundWorkingDays != 3 {
		t.Errorf("DefaultTurnaroundWorkingDays = %d, want 3", cfg.DefaultTurnaroundWorkingDays)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 15s", cfg.ShutdownTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default %q", cfg.LogLevel, "info")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "cas3.toml", `port = "9090"`)
	t.Setenv("PORT", "7070")
	t.Setenv("DEFAULT_TURNAROUND_WORKING_DAYS", "0")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("Port = %q, want %q", cfg.Port, "7070")
	}
	if cfg.DefaultTurnaroundWorkingDays != 0 {
		t.Errorf("DefaultTurnaroundWorkingDays = %d, want 0", cfg.DefaultTurnaroundWorkingDays)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "DATABASE_PATH=from-dotenv.db\n")
	t.Setenv("DATABASE_PATH", "")
	// godotenv never overrides a variable that is already set, so clear it
	// for the duration of the test.
	os.Unsetenv("DATABASE_PATH")

	cfg, err := config.Load("", envFile, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabasePath != "from-dotenv.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "from-dotenv.db")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"negative turnaround", map[string]string{"DEFAULT_TURNAROUND_WORKING_DAYS": "-1"}, "negative"},
		{"non-numeric turnaround", map[string]string{"DEFAULT_TURNAROUND_WORKING_DAYS": "two"}, "DEFAULT_TURNAROUND_WORKING_DAYS"},
		{"log format", map[string]string{"LOG_FORMAT": "xml"}, "log_format"},
		{"log level", map[string]string{"LOG_LEVEL": "loud"}, "log_level"},
		{"shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "soon"}, "SHUTDOWN_TIMEOUT"},
		{"telemetry exporter", map[string]string{"OTEL_EXPORTER": "zipkin"}, "telemetry.exporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load("")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingTOMLFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}

func TestConfig_Logger(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "warn")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var buf bytes.Buffer
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "bedspace_id", "bs-1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"bedspace_id":"bs-1"`) {
		t.Errorf("expected JSON output, got: %s", out)
	}
}
