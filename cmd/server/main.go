package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/wordduel/internal/api"
	"github.com/mcoot/wordduel/internal/config"
	"github.com/mcoot/wordduel/internal/factory"
	"github.com/mcoot/wordduel/internal/services/scheduler"
	redisstorage "github.com/mcoot/wordduel/internal/storage/redis"
	"github.com/mcoot/wordduel/internal/web/ws"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wordduel-server",
		Short:         "Two-player word duel server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(parent context.Context, cfg *config.Config) error {
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transport := ws.DefaultConfig()
	transport.MessageRate = cfg.MessageRate
	transport.MessageBurst = cfg.MessageBurst

	appCfg := factory.Config{
		WordsFile:   cfg.WordsFile,
		Logger:      logger,
		StorageType: cfg.Storage,
		Grace: scheduler.Config{
			ShortGrace: cfg.ShortGrace,
			RoundGrace: cfg.RoundGrace,
		},
		Transport: &transport,
	}
	if cfg.Storage == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		appCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(ctx, appCfg)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.Any("error", err))
		}
	}()

	server := api.NewServer(app.Router(cfg.StaticDir, cfg.PublicURL), api.ServerConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	logger.Info("server starting",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage),
		slog.Duration("short_grace", cfg.ShortGrace),
		slog.Duration("round_grace", cfg.RoundGrace),
	)

	if err := server.Run(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
