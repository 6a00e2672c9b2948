// Package app wires the lesson bot: store, locker, controller, routes and the ops server.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/lessonbot/core/bootstrap"
	corecmd "github.com/m3rciful/lessonbot/core/cmd"
	coredatabase "github.com/m3rciful/lessonbot/core/database"
	"github.com/m3rciful/lessonbot/core/logger"
	coretelegram "github.com/m3rciful/lessonbot/core/telegram"
	"github.com/m3rciful/lessonbot/core/telegram/commands"
	"github.com/m3rciful/lessonbot/core/telegram/router"
	"github.com/m3rciful/lessonbot/core/telegram/state"
	"github.com/m3rciful/lessonbot/internal/delivery"
	"github.com/m3rciful/lessonbot/internal/locker"
	"github.com/m3rciful/lessonbot/internal/ops"
	"github.com/m3rciful/lessonbot/internal/store"
	"github.com/m3rciful/lessonbot/migrations"
)

// App is a bootstrapped bot process.
type App struct {
	cfg       *Config
	db        *sqlx.DB
	store     *store.Store
	transport *coretelegram.BotTransport
	handlers  *delivery.Handlers
	registry  *coretelegram.Registry
	closers   []io.Closer
	ops       *ops.Server
}

// Bootstrap implements the runner's bootstrap step for *Config.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.App, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return New(context.Background(), cfg, bootstrap.Options{})
}

// New runs the bootstrap pipeline and builds the application.
// Fields of base left empty are filled from cfg.
func New(ctx context.Context, cfg *Config, base bootstrap.Options) (*App, error) {
	if base.Config == nil {
		base.Config = cfg.CoreConfig()
	}
	if base.Database == (coredatabase.Config{}) {
		base.Database = cfg.Database
	}
	if base.Migrations == nil {
		base.Migrations = migrations.FS
	}
	res, err := bootstrap.Run(base)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		db:        res.DB,
		store:     store.New(res.DB),
		transport: coretelegram.NewBotTransport(),
		registry:  coretelegram.NewRegistry(),
	}

	lk, err := a.buildLocker(ctx)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}

	ctrl, err := delivery.NewController(delivery.Options{
		Store:     a.store,
		Transport: a.transport,
		Admins:    cfg.AdminList(),
		Locker:    lk,
		Sessions:  state.NewMemoryManager(),
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.handlers = delivery.NewHandlers(ctrl)
	if err := a.register(); err != nil {
		a.close()
		return nil, err
	}
	if cfg.Ops.Addr != "" {
		a.ops = ops.NewServer(cfg.Ops.Addr, a.store)
	}

	logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "app.wire",
		slog.String("status", "ok"),
		slog.Int("admins", cfg.AdminList().Len()),
		slog.Bool("redis_lock", cfg.Redis.Addr != ""),
		slog.Bool("ops", a.ops != nil),
	)
	return a, nil
}

func (a *App) buildLocker(ctx context.Context) (locker.Locker, error) {
	if a.cfg.Redis.Addr == "" {
		return locker.NewMemory(), nil
	}
	r, err := locker.NewRedis(ctx, locker.RedisOptions{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
		Prefix:   a.cfg.Redis.Prefix,
		TTL:      a.cfg.LockTTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.closers = append(a.closers, r)
	return r, nil
}

func (a *App) register() error {
	h := a.handlers
	a.registry.RegisterCommand("/start", commands.Command{
		Handler:     h.OnMessage,
		Description: "Register in the bot",
	})
	a.registry.RegisterCommand("/lesson", commands.Command{
		Handler:     h.OnLessonCommand,
		Description: "Show or set the lesson for uploads",
		AdminOnly:   true,
	})
	return a.registry.RegisterCallback(delivery.AllowCallbackKey, h.OnAllowCallback)
}

// RunOptions returns the Telegram runtime options for this app.
func (a *App) RunOptions(hooks corecmd.Hooks) coretelegram.RunOptions {
	cfg := a.cfg.CoreConfig()
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		IsAdmin: a.handlers.IsAdmin,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.MessageRoutes(router.MessageOptions{
		Resolve: a.handlers.Resolve,
	})...)

	return coretelegram.RunOptions{
		Config:      cfg,
		Registry:    a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(cfg, nil),
		Routes:      routes,
		OnStart:     corecmd.ChainStart(a.bindTransport, hooks.OnStart),
		OnStop:      hooks.OnStop,
	}
}

func (a *App) bindTransport(_ context.Context, rt coretelegram.Runtime) error {
	if rt.Bot == nil {
		return fmt.Errorf("app: runtime has no bot")
	}
	a.transport.Bind(rt.Bot)
	return nil
}

// Run drives the bot and, when configured, the ops server until ctx is done.
func (a *App) Run(ctx context.Context, runTelegram func(context.Context, coretelegram.RunOptions) error, hooks corecmd.Hooks) error {
	defer a.close()

	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()
	g.Go(func() error {
		// The ops server has nothing to report once the bot is gone.
		defer cancel()
		return runTelegram(gctx, a.RunOptions(hooks))
	})
	if a.ops != nil {
		g.Go(func() error {
			return a.ops.Run(gctx)
		})
	}
	return g.Wait()
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logger.Warn(logger.Background(), logger.CompLocker, "close",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}
	a.closers = nil
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.LogEvent(logger.Background(), logger.DB, slog.LevelWarn, "db.close",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
		a.db = nil
	}
}
