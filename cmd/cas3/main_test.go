package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	fsmadapter "github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/fsm"
	handler "github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/http"
	oteladapter "github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/otel"
	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/sqlite"
	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/app"
	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

// testPublisher is a local EventPublisher for the smoke test.
// The smoke test verifies HTTP wiring, not River.
type testPublisher struct{}

func (p *testPublisher) Publish(_ context.Context, _ domain.DomainEvent) error {
	return nil
}

// TestSmoke wires the full stack like run() and verifies it responds.
func TestSmoke(t *testing.T) {
	dbPath := t.TempDir() + "/test.db"

	store, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	validators := app.Validators{
		Booking:  fsmadapter.NewBookingValidator(),
		Schedule: fsmadapter.NewScheduleValidator(),
		Void:     fsmadapter.NewVoidValidator(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := app.NewService(oteladapter.NewTracingStore(store), &testPublisher{}, validators, app.RealClock{}, logger)

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig(serviceName, "0.1.0"))
	handler.Register(api, svc)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL+"/api/v1/premises",
		strings.NewReader(`{"name":"Harbour House","postcode":"LS1 1AA"}`))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /api/v1/premises failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var premises map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&premises); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if premises["status"] != "online" {
		t.Errorf("status = %v, want online", premises["status"])
	}
}

// discardStdout silences the stdout OTel exporters for the rest of the test.
func discardStdout(t *testing.T) {
	t.Helper()

	origStdout := os.Stdout
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("opening /dev/null: %v", err)
	}
	os.Stdout = devNull
	t.Cleanup(func() {
		os.Stdout = origStdout
		devNull.Close()
	})
}

// TestRun exercises the real run() function end-to-end: config, OTel,
// River, HTTP server, and graceful shutdown.
func TestRun(t *testing.T) {
	t.Setenv("DATABASE_PATH", t.TempDir()+"/test-run.db")
	t.Setenv("PORT", "19876")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("OTEL_EXPORTER", "stdout")
	t.Setenv("OTEL_ENVIRONMENT", "test")
	discardStdout(t)

	errCh := make(chan error, 1)
	go func() { errCh <- run() }()

	// Wait for the HTTP server to become ready.
	serverURL := "http://localhost:19876"
	ready := false
	for range 50 {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, serverURL+"/openapi.json", nil)
		resp, reqErr := http.DefaultClient.Do(req)
		if reqErr == nil {
			resp.Body.Close()
			ready = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ready {
		t.Fatal("server did not start within 5 seconds")
	}

	// An unknown premises is a 404 from the real stack, not a routing miss.
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, serverURL+"/api/v1/premises/missing", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/v1/premises/missing failed: %v", err)
	}
	var body struct {
		Detail string `json:"detail"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if decodeErr != nil || body.Detail != domain.ErrPremisesNotFound.Error() {
		t.Errorf("detail = %q (decode error %v), want %q", body.Detail, decodeErr, domain.ErrPremisesNotFound.Error())
	}

	// Send SIGINT to trigger graceful shutdown.
	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("finding process: %v", err)
	}
	if err := proc.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("sending SIGINT: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not exit within 10 seconds")
	}
}

// TestRun_InvalidDB verifies run() returns an error for an invalid database path.
func TestRun_InvalidDB(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/nonexistent/path/db.sqlite")
	t.Setenv("PORT", "19877")
	t.Setenv("OTEL_EXPORTER", "none")

	if err := run(); err == nil {
		t.Fatal("expected error for invalid database path, got nil")
	}
}

// TestRun_InvalidConfig verifies run() refuses to start on bad settings.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("DEFAULT_TURNAROUND_WORKING_DAYS", "-1")
	t.Setenv("OTEL_EXPORTER", "none")

	if err := run(); err == nil {
		t.Fatal("expected error for a negative default turnaround, got nil")
	}
}
