package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	migrations "github.com/teampulse/teampulse/db"
	"github.com/teampulse/teampulse/internal/auth"
	"github.com/teampulse/teampulse/internal/config"
	"github.com/teampulse/teampulse/internal/db"
	"github.com/teampulse/teampulse/internal/googleauth"
	"github.com/teampulse/teampulse/internal/handlers"
	"github.com/teampulse/teampulse/internal/logger"
	"github.com/teampulse/teampulse/internal/server"
	"github.com/teampulse/teampulse/internal/slackapi"
	"github.com/teampulse/teampulse/internal/users"
	"github.com/teampulse/teampulse/internal/workspace"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
		return
	}

	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,

			fx.Annotate(users.NewPostgresStore, fx.As(new(users.Store))),
			users.NewService,

			fx.Annotate(provideGoogleBridge, fx.As(new(handlers.Federation))),
			fx.Annotate(provideSlackClient, fx.As(new(workspace.Client))),
			provideWorkspaceService,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(provideWorkspaceHandler),

			provideServer,
		),
		fx.Invoke(startServer),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func runMigrate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: teampulse migrate <up|down|version|force N>")
	}
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	migrationsFS, err := fs.Sub(migrations.MigrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	return db.RunMigrate(logger.L, cfg.Postgres, migrationsFS, args[0], args[1:])
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideGoogleBridge(log *slog.Logger, cfg config.Config) *googleauth.Bridge {
	return googleauth.NewBridge(log, cfg.Google)
}

func provideSlackClient(log *slog.Logger, cfg config.Config) *slackapi.Client {
	return slackapi.NewClient(log, cfg.Slack)
}

func provideWorkspaceService(log *slog.Logger, cfg config.Config, client workspace.Client) *workspace.Service {
	timeout := time.Duration(cfg.Slack.TimeoutSeconds) * time.Second
	return workspace.NewService(log, client, timeout, cfg.Slack.MaxPages, cfg.Slack.PageLimit)
}

func provideAuthHandler(log *slog.Logger, cfg config.Config, userService *users.Service, federation handlers.Federation) *handlers.AuthHandler {
	expiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil || expiresIn <= 0 {
		expiresIn = auth.DefaultExpiresIn
	}
	return handlers.NewAuthHandler(log, userService, federation, cfg.Auth.JWTSecret, expiresIn)
}

func provideWorkspaceHandler(log *slog.Logger, service *workspace.Service) *handlers.WorkspaceHandler {
	return handlers.NewWorkspaceHandler(log, service)
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger   *slog.Logger
	Config   config.Config
	Handlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.Handlers...)
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
