package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	fsmadapter "github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/fsm"
	oteladapter "github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/otel"
	riveradapter "github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/river"
	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/sqlite"
	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/app"
	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/config"

	handler "github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/http"
)

const serviceName = "cas3"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CAS3_CONFIG"), ".env")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	providers, err := oteladapter.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(flushCtx); err != nil {
			logger.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := oteladapter.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	store, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}

	jobs, err := riveradapter.Setup(ctx, db, logger)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	// Jobs keep running until the HTTP server has drained.
	if err := jobs.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	// --- Application ---
	validators := app.Validators{
		Booking:  fsmadapter.NewBookingValidator(),
		Schedule: fsmadapter.NewScheduleValidator(),
		Void:     fsmadapter.NewVoidValidator(),
	}
	svc := app.NewService(
		oteladapter.NewTracingStore(store),
		oteladapter.NewTracingPublisher(riveradapter.NewPublisher(jobs)),
		validators,
		app.RealClock{},
		logger,
	).WithDefaultTurnaround(cfg.DefaultTurnaroundWorkingDays)

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware(cfg.Telemetry.ServiceName, otelchi.WithChiRoutes(router)))
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	router.Use(middleware.Recoverer)

	api := humachi.New(router, huma.DefaultConfig(serviceName, cfg.Telemetry.ServiceVersion))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "docs", "http://localhost:"+cfg.Port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stopJobs(jobs, cfg.ShutdownTimeout, logger)
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	stopJobs(jobs, cfg.ShutdownTimeout, logger)

	logger.Info("stopped")
	return nil
}

func stopJobs(jobs *riveradapter.Client, timeout time.Duration, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := jobs.Stop(ctx); err != nil {
		logger.Error("river shutdown", "error", err)
	}
}
