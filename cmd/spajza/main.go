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

	"github.com/spf13/pflag"

	"github.com/erazemk/spajza/internal/api"
	"github.com/erazemk/spajza/internal/catalog"
	"github.com/erazemk/spajza/internal/config"
	"github.com/erazemk/spajza/internal/db"
	"github.com/erazemk/spajza/internal/logging"
	"github.com/erazemk/spajza/internal/metrics"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Config validation already accepted the level.
	level, _ := logging.ParseLevel(cfg.Log.Level)
	closeLog, err := logging.Setup(logging.Options{
		Level: level,
		File:  cfg.Log.File,
		Color: cfg.Log.Color,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("fatal error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
	}

	hooks := []db.Hook{db.NewLogHook(db.LogHookConfig{
		Logger:             slog.Default(),
		SlowQueryThreshold: cfg.DB.SlowQuery,
	})}
	if m != nil {
		hooks = append(hooks, db.NewMetricsHook(m))
	}

	database, err := db.Open(db.Config{
		Driver:       cfg.DB.Driver,
		DSN:          cfg.DB.DSN,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		Hooks:        hooks,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	ctx := context.Background()

	// Ensure schema exists (idempotent).
	if err := database.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "driver", cfg.DB.Driver)

	svc := catalog.New(database)
	if cfg.Seed {
		if _, err := svc.Seed(ctx); err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}
	}

	handler := api.NewRouter(svc, api.Options{
		BasePath:    cfg.Server.BasePath,
		CORSOrigins: cfg.Server.CORSOrigins,
		Metrics:     m,
		MetricsPath: cfg.Metrics.Path,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr, "base_path", cfg.Server.BasePath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-stopped
	slog.Info("server stopped, closing database")
	return nil
}
