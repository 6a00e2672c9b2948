package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/lessonbot/core/config"
	"github.com/m3rciful/lessonbot/core/logger"
	coretelegram "github.com/m3rciful/lessonbot/core/telegram"
)

// ConfigCarrier exposes access to the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// App is the minimal interface required to run a bot process.
// Run blocks until ctx is done, driving the Telegram runtime through runTelegram.
type App interface {
	Run(ctx context.Context, runTelegram func(context.Context, coretelegram.RunOptions) error, hooks Hooks) error
}

// Hooks are lifecycle callbacks the runner adds around the app's own hooks.
type Hooks struct {
	OnStart func(ctx context.Context, rt coretelegram.Runtime) error
	OnStop  func(ctx context.Context, rt coretelegram.Runtime) error
}

// Options describe how to load configuration, bootstrap the app, and run the bot.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(cfg ConfigCarrier) (App, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// Run loads configuration, bootstraps the app, and starts the bot runtime.
// The config file is optional; an empty path leaves the environment as the only source.
func Run(opts Options) error {
	if opts.LoadConfig == nil {
		return fmt.Errorf("cmd: LoadConfig is required")
	}
	if opts.Bootstrap == nil {
		return fmt.Errorf("cmd: Bootstrap is required")
	}

	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	cfgPath := os.Getenv(env)
	if cfgPath == "" {
		cfgPath = opts.DefaultConfigPath
	}

	if cfgPath != "" {
		log.Printf("loading config: %s", cfgPath)
	} else {
		log.Printf("loading config from environment")
	}
	cfg, err := opts.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}
	if cfg.CoreConfig() == nil {
		return fmt.Errorf("cmd: loaded config is missing core configuration")
	}

	startedAt := time.Now()
	application, err := opts.Bootstrap(cfg)

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}

	hooks := Hooks{
		OnStart: func(ctx context.Context, _ coretelegram.Runtime) error {
			logger.LogEvent(ctx, logger.Component("app"), slog.LevelInfo, "ready",
				slog.String("status", "ok"),
				slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
			)
			return nil
		},
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			logger.LogEvent(ctx, logger.Component("app"), slog.LevelInfo, "shutdown",
				slog.String("status", "ok"),
			)
			return nil
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}

	return application.Run(ctx, run, hooks)
}

// ChainStart runs the hooks in order and stops at the first error.
func ChainStart(hooks ...func(context.Context, coretelegram.Runtime) error) func(context.Context, coretelegram.Runtime) error {
	return func(ctx context.Context, rt coretelegram.Runtime) error {
		for _, h := range hooks {
			if h == nil {
				continue
			}
			if err := h(ctx, rt); err != nil {
				return err
			}
		}
		return nil
	}
}
