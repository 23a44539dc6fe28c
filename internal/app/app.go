// Package app assembles the ledger server from configuration.
package app

import (
	"context"
	"errors"
	"net"
	"time"

	"tradeledger/internal/application/holdings"
	"tradeledger/internal/application/trading"
	"tradeledger/internal/auth"
	"tradeledger/internal/config"
	"tradeledger/internal/dispatcher"
	"tradeledger/internal/health"
	"tradeledger/internal/infrastructure/database"
	"tradeledger/internal/interfaces/router"
	"tradeledger/internal/registry"
	"tradeledger/internal/server"
	"tradeledger/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// App owns every long-lived dependency of a running server.
type App struct {
	Config     *config.Config
	DB         *gorm.DB
	Store      *store.Store
	Registry   registry.Registry
	Stats      health.Stats
	Dispatcher *dispatcher.Dispatcher
	Server     *server.Server
	Ops        *fiber.App // nil unless HEALTH_PORT is set

	rdb *redis.Client
}

type sessionCounter struct {
	reg registry.Registry
}

func (s sessionCounter) ActiveSessions(ctx context.Context) (int, error) {
	return registry.Count(ctx, s.reg)
}

// New opens storage, seeds the default dataset when enabled, resolves the
// administrator and builds the server.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	if err := a.openStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Store = store.New(a.DB)
	authSvc, err := auth.NewService(ctx, a.Store, cfg.AdminLogin)
	if err != nil {
		a.Close()
		return nil, err
	}

	if a.rdb != nil {
		a.Registry = registry.NewRedis(a.rdb)
		a.Stats = health.NewRedisStats(a.rdb)
	} else {
		a.Registry = registry.NewMemory()
		a.Stats = health.NewMemoryStats()
	}
	// Rows left by a previous process do not describe live connections.
	if err := a.Registry.Reset(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Dispatcher = &dispatcher.Dispatcher{
		Auth:     authSvc,
		Registry: a.Registry,
		Trading:  &trading.Service{Store: a.Store, Registry: a.Registry},
		Holdings: &holdings.Service{Store: a.Store},
		Stats:    a.Stats,
	}
	a.Server = server.New(a.Dispatcher, cfg.IdleTimeout)
	a.Dispatcher.Shutdown = a.Server.Shutdown

	if cfg.HealthPort != "" {
		a.Ops = router.CreateApp(health.Deps{
			DB:       a.Store,
			Registry: a.Registry,
			Sessions: sessionCounter{reg: a.Registry},
			Stats:    a.Stats,
		}, cfg.HealthKey)
	}
	return a, nil
}

func (a *App) openStorage(ctx context.Context) error {
	db, err := database.Open(a.Config.DatabaseURL)
	if err != nil {
		return err
	}
	a.DB = db
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	if a.Config.SeedDefaults {
		created, err := database.Seed(db, database.DefaultAccounts)
		if err != nil {
			return err
		}
		if created > 0 {
			log.Info().Int("accounts", created).Msg("seeded default accounts")
		}
	}

	if a.Config.RedisURL != "" {
		opt, err := redis.ParseURL(a.Config.RedisURL)
		if err != nil {
			return err
		}
		a.rdb = redis.NewClient(opt)
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		log.Info().Msg("redis connected")
	}
	return nil
}

// Run listens on the configured address and serves until ctx is cancelled or
// an administrator shuts the server down.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.Addr())
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve runs the ledger server on ln, plus the ops app when configured.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	if a.Ops != nil {
		opsAddr := net.JoinHostPort(a.Config.Host, a.Config.HealthPort)
		go func() {
			log.Info().Str("addr", opsAddr).Msg("health endpoint listening")
			if err := a.Ops.Listen(opsAddr); err != nil {
				log.Error().Err(err).Msg("health endpoint stopped")
			}
		}()
	}

	err := a.Server.Serve(ctx, ln)

	if a.Ops != nil {
		if shutdownErr := a.Ops.ShutdownWithTimeout(5 * time.Second); shutdownErr != nil {
			log.Warn().Err(shutdownErr).Msg("health endpoint shutdown")
		}
	}
	return err
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
