// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/club-events/internal/app"
	"github.com/Shivanand-hulikatti/club-events/internal/config"
	"github.com/Shivanand-hulikatti/club-events/internal/database"
	"github.com/Shivanand-hulikatti/club-events/internal/handler"
	"github.com/Shivanand-hulikatti/club-events/internal/logging"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// ── 1. Load configuration ─────────────────────────────────────────────
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 2. Connect to PostgreSQL and wire up layers ──────────────────────
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	logger.Info("db_connected")

	if err := database.Migrate(ctx, a.Pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// ── 3. Build the router ───────────────────────────────────────────────
	router := handler.NewRouter(handler.Deps{
		Events:         a.Events,
		Registrations:  a.Registrations,
		Auth:           a.Auth,
		Profiles:       a.Users,
		Guard:          a.Guard,
		DB:             a.Pool,
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AssetsDir:      a.LocalAssetsDir,
		AssetsPrefix:   cfg.Assets.BaseURL,
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server_shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server_stopped")
	return nil
}
