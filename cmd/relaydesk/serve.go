package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/relaydesk/relaydesk/internal/accounts"
	"github.com/relaydesk/relaydesk/internal/auth"
	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/config"
	"github.com/relaydesk/relaydesk/internal/customer"
	"github.com/relaydesk/relaydesk/internal/db"
	dbsqlc "github.com/relaydesk/relaydesk/internal/db/sqlc"
	"github.com/relaydesk/relaydesk/internal/handlers"
	"github.com/relaydesk/relaydesk/internal/identity"
	"github.com/relaydesk/relaydesk/internal/ingest"
	"github.com/relaydesk/relaydesk/internal/logger"
	"github.com/relaydesk/relaydesk/internal/message"
	"github.com/relaydesk/relaydesk/internal/outbound"
	"github.com/relaydesk/relaydesk/internal/realtime"
	"github.com/relaydesk/relaydesk/internal/server"
	"github.com/relaydesk/relaydesk/internal/session"
	"github.com/relaydesk/relaydesk/internal/thread"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideDBQueries,
			customer.NewService,
			thread.NewRegistry,
			message.NewDBService,
			accounts.NewService,
			realtime.NewHub,
			provideLinker,
			provideResolver,
			provideNormalizer,
			provideSenders,
			provideDispatcher,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(handlers.NewAuthHandler),
			provideServerHandler(handlers.NewSessionHandler),
			provideServerHandler(handlers.NewMessagesHandler),
			provideServerHandler(handlers.NewWebhookHandler),
			provideServerHandler(handlers.NewLinkHandler),
			provideServerHandler(handlers.NewRealtimeHandler),

			provideServer,
		),
		fx.Invoke(
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	return loadConfig()
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideDBQueries(conn *pgxpool.Pool) *dbsqlc.Queries { return dbsqlc.New(conn) }

func provideLinker(log *slog.Logger, store *customer.Service, threads *thread.Registry) *identity.Linker {
	return identity.NewLinker(log, store, threads)
}

func provideResolver(log *slog.Logger, store *customer.Service, threads *thread.Registry) *session.Resolver {
	return session.NewResolver(log, store, threads)
}

func provideNormalizer(log *slog.Logger, linker *identity.Linker, messages *message.DBService, store *customer.Service, threads *thread.Registry, hub *realtime.Hub) *ingest.Normalizer {
	return ingest.NewNormalizer(log, linker, messages, store, threads, hub)
}

func provideSenders(cfg config.Config) map[channel.Channel]outbound.Sender {
	return map[channel.Channel]outbound.Sender{
		channel.Line:      outbound.NewLineSender(cfg.Line, nil),
		channel.Messenger: outbound.NewMessengerSender(cfg.Messenger, nil),
		channel.Webchat:   outbound.WebchatSender{},
	}
}

func provideDispatcher(log *slog.Logger, senders map[channel.Channel]outbound.Sender, store *customer.Service, threads *thread.Registry, messages *message.DBService, hub *realtime.Hub) *outbound.Dispatcher {
	return outbound.NewDispatcher(log, senders, store, threads, messages, hub)
}

type serverParams struct {
	fx.In
	Logger   *slog.Logger
	Config   config.Config
	Handlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.New(params.Logger, params.Config, params.Handlers...)
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config, accountService *accounts.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.Migrate(cfg.Postgres); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := accountService.EnsureAdmin(ctx, cfg.Admin); err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			if cfg.Auth.JWTSecret == "" {
				log.Warn("auth.jwt_secret is empty, staff logins will fail")
			}
			log.Info("starting server",
				slog.String("addr", cfg.Server.Addr),
				slog.Duration("token_ttl", auth.TokenTTL(cfg.Auth)))
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
