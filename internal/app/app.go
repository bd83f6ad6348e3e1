// Package app wires configuration, storage and services into the object
// graph shared by the HTTP server and the clubctl CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/club-events/internal/asset"
	"github.com/Shivanand-hulikatti/club-events/internal/auth"
	"github.com/Shivanand-hulikatti/club-events/internal/config"
	"github.com/Shivanand-hulikatti/club-events/internal/database"
	"github.com/Shivanand-hulikatti/club-events/internal/guard"
	"github.com/Shivanand-hulikatti/club-events/internal/notify"
	"github.com/Shivanand-hulikatti/club-events/internal/repository"
	"github.com/Shivanand-hulikatti/club-events/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App holds the long-lived dependencies.
type App struct {
	Pool          *pgxpool.Pool
	Users         *repository.UserRepository
	Auth          *auth.Service
	Guard         *guard.Guard
	Events        *service.EventService
	Registrations *service.RegistrationService

	// LocalAssetsDir is set when images are stored on local disk.
	LocalAssetsDir string

	closers []func()
}

// New connects to the database and builds every service.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	pool, err := database.NewPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a := &App{Pool: pool, closers: []func(){pool.Close}}

	store, err := a.assetStore(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	var sender notify.Sender = notify.NewNoopSender(logger)
	if cfg.Email.ResendAPIKey != "" {
		sender = notify.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, logger)
	}

	eventRepo := repository.NewEventRepository(pool, logger)
	regRepo := repository.NewRegistrationRepository(pool, logger)
	a.Users = repository.NewUserRepository(pool, logger)

	a.Auth = auth.NewService(a.Users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)
	a.Guard = guard.New(cfg.Auth.AdminEmails)
	a.Events = service.NewEventService(eventRepo, regRepo, store, cfg.Assets.PlaceholderURL, logger)
	a.Registrations = service.NewRegistrationService(regRepo, eventRepo, sender, logger)
	return a, nil
}

func (a *App) assetStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (asset.Store, error) {
	switch cfg.Assets.Driver {
	case "gcs":
		s, err := asset.NewGCSStore(ctx, cfg.Assets.Bucket)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = s.Close() })
		return s, nil
	default:
		s, err := asset.NewLocalStore(cfg.Assets.Dir, cfg.Assets.BaseURL)
		if err != nil {
			return nil, err
		}
		a.LocalAssetsDir = s.Dir()
		if s.Missing(cfg.Assets.PlaceholderURL) {
			logger.WarnContext(ctx, "asset_placeholder_missing",
				"url", cfg.Assets.PlaceholderURL, "dir", s.Dir())
		}
		return s, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
