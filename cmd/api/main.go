package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/career-coach/internal/app"
	"github.com/riskibarqy/career-coach/internal/config"
	"github.com/riskibarqy/career-coach/internal/observability"
	"github.com/riskibarqy/career-coach/internal/platform/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(logging.Options{
		Level:          cfg.LogLevel,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.AppEnv,
		Console:        cfg.AppEnv == config.EnvDev,
	})
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	pprofSrv := observability.StartPprofServer(cfg, logger)

	srv, err := app.NewHTTPServer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
		if err := srv.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logger.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.HTTP.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := srv.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close resources: %w", err))
	}
	if err := observability.StopPprofServer(shutdownCtx, pprofSrv, logger); err != nil {
		errs = append(errs, fmt.Errorf("stop pprof server: %w", err))
	}
	if err := stopProfiler(); err != nil {
		errs = append(errs, fmt.Errorf("stop pyroscope: %w", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown uptrace: %w", err))
	}

	logger.Info("http server stopped")
	return errors.Join(errs...)
}
