// Package app wires configuration, storage, the engine and the Telegram
// transport into a runnable bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/subbot/core/bootstrap"
	corecmd "github.com/m3rciful/subbot/core/cmd"
	"github.com/m3rciful/subbot/core/logger"
	coretelegram "github.com/m3rciful/subbot/core/telegram"
	"github.com/m3rciful/subbot/core/telegram/state"
	"github.com/m3rciful/subbot/internal/config"
	"github.com/m3rciful/subbot/internal/flows"
	"github.com/m3rciful/subbot/internal/identity"
	"github.com/m3rciful/subbot/internal/platform"
	"github.com/m3rciful/subbot/internal/templates"
	"github.com/m3rciful/subbot/internal/transport"
)

// App is the assembled bot.
type App struct {
	cfg     *config.Config
	store   identity.Store
	users   *identity.UserResolver
	engine  *flows.Engine
	adapter *transport.Adapter
	reg     *coretelegram.Registry
	ownerID int64
}

// LoadConfig adapts config.Load to the core runner.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	return config.Load(path)
}

// Bootstrap builds the App from a configuration loaded by LoadConfig.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:      cfg.CoreConfig(),
		Database:    cfg.DatabaseConfig(),
		OpenStorage: openStorage(cfg),
		Modules: bootstrap.Modules{
			Seeders: []bootstrap.Seeder{
				identity.OwnerSeeder(identity.Owner{
					ID:        cfg.Telegram.OwnerID,
					FirstName: cfg.Owner.FirstName,
					Username:  cfg.Owner.Username,
				}),
			},
		},
	})
	if err != nil {
		return nil, err
	}
	store := res.Storage.(identity.Store)

	users, err := identity.NewUserResolver(store, identity.UserResolverOptions{
		OwnerID:       cfg.Telegram.OwnerID,
		CacheTTL:      cfg.Identity.CacheTTL,
		CacheCapacity: cfg.Identity.CacheCapacity,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	ownerID, err := users.OwnerID(ctx)
	if err != nil {
		users.Close()
		_ = store.Close()
		return nil, err
	}

	client := coretelegram.BuildHTTPClient(coretelegram.HTTPClientOptions{Timeout: cfg.Platform.Timeout})
	engine := flows.NewEngine(flows.Deps{
		Users:     users,
		Bots:      identity.NewBotResolver(store),
		Verifier:  platform.NewVerifier(cfg.Platform.APIURL, client, cfg.Platform.Timeout),
		Templates: templates.NewLoader(cfg.Templates.Path),
		Stats: func(ctx context.Context) (identity.Stats, error) {
			return identity.CollectStats(ctx, store)
		},
	})

	reg := coretelegram.NewRegistry()
	logger.Info(ctx, "app", "app.bootstrapped",
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("owner_set", ownerID != 0),
		slog.Bool("identity_cache", cfg.Identity.CacheTTL > 0),
	)
	return &App{
		cfg:     cfg,
		store:   store,
		users:   users,
		engine:  engine,
		adapter: transport.New(engine, reg),
		reg:     reg,
		ownerID: ownerID,
	}, nil
}

// TelegramRunOptions returns the routes and middleware of the bot.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	session := coretelegram.Middleware{
		Name: "session",
		Use:  state.WithSession(a.engine.Sessions()),
	}
	return coretelegram.RunOptions{
		Config:      core,
		Registry:    a.reg,
		APIURL:      a.cfg.Platform.APIURL,
		Middlewares: coretelegram.DefaultMiddlewares(core, nil, session),
		Routes: a.adapter.Routes(transport.RouteOptions{
			OwnerID: a.ownerID,
			Stats:   true,
		}),
	}, nil
}

// Close releases the resolver cache and the store.
func (a *App) Close() error {
	a.users.Close()
	return a.store.Close()
}

func openStorage(cfg *config.Config) func(context.Context, *sqlx.DB) (bootstrap.Storage, error) {
	return func(_ context.Context, db *sqlx.DB) (bootstrap.Storage, error) {
		if cfg.SQL() {
			if db == nil {
				return nil, errors.New("sql storage without a database connection")
			}
			return identity.NewSQLStore(db), nil
		}
		return identity.OpenFileStore(cfg.Storage.Path)
	}
}
