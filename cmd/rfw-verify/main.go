package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/rfw-verification/internal/adapter/httpadapter"
	"github.com/couchcryptid/rfw-verification/internal/adapter/jsonfile"
	kafkaadapter "github.com/couchcryptid/rfw-verification/internal/adapter/kafka"
	"github.com/couchcryptid/rfw-verification/internal/adapter/sqlite"
	"github.com/couchcryptid/rfw-verification/internal/adapter/stdout"
	"github.com/couchcryptid/rfw-verification/internal/config"
	"github.com/couchcryptid/rfw-verification/internal/domain"
	"github.com/couchcryptid/rfw-verification/internal/observability"
	"github.com/couchcryptid/rfw-verification/internal/pipeline"
	"github.com/couchcryptid/rfw-verification/internal/verify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, closeStore, err := newStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	loader, closeLoader := newLoader(cfg, logger)
	defer closeLoader()

	verifier, err := verify.NewVerifier(cfg.Engine, logger)
	if err != nil {
		logger.Error("invalid engine configuration", "error", err)
		os.Exit(1)
	}

	sweep, err := loadSweep(cfg)
	if err != nil {
		logger.Error("failed to load sweep", "error", err)
		os.Exit(1)
	}

	p := pipeline.New(store, verifier, loader, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the sweep once; reports stay available on /reports until shutdown.
	var failed atomic.Bool
	go func() {
		if _, err := p.Run(ctx, sweep); err != nil {
			logger.Error("pipeline error", "error", err)
			failed.Store(true)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	if failed.Load() {
		closeLoader()
		closeStore()
		os.Exit(1)
	}
}

func newStore(cfg *config.Config, logger *slog.Logger) (domain.RecordStore, func(), error) {
	if cfg.RecordSource == config.SourceSQLite {
		s, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Error("sqlite close error", "error", err)
			}
		}, nil
	}
	return jsonfile.NewStore(cfg.WarningsPath, cfg.FiresPath, logger), func() {}, nil
}

func newLoader(cfg *config.Config, logger *slog.Logger) (pipeline.ReportLoader, func()) {
	if cfg.ReportSink == config.SinkKafka {
		w := kafkaadapter.NewWriter(cfg, logger)
		return w, func() {
			if err := w.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}
	}
	return stdout.NewWriter(os.Stdout), func() {}
}

// loadSweep reads SWEEP_FILE, or falls back to the single configuration
// described by the filter variables.
func loadSweep(cfg *config.Config) ([]pipeline.Sweep, error) {
	if cfg.SweepFile != "" {
		return pipeline.LoadSweep(cfg.SweepFile)
	}
	return []pipeline.Sweep{{Label: "default", Options: cfg.Filter}}, nil
}
