package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/codebreak-go/internal/api"
	"github.com/mcoot/codebreak-go/internal/factory"
	"github.com/mcoot/codebreak-go/internal/session"
	statsredis "github.com/mcoot/codebreak-go/internal/stats/redis"
)

func main() {
	cfg := &config{}
	cmd := newCmd(cfg)
	if err := cmd.Execute(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config) error {
	// Set up logging with JSON output
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.storage,
		Policy: &session.Policy{
			GraceTicks:            cfg.graceTicks,
			DissolveOnLeave:       cfg.dissolveOnLeave,
			PreserveChatOnRematch: cfg.preserveChat,
		},
		TickInterval: cfg.tickInterval,
	}
	if cfg.storage == factory.StorageTypeRedis {
		redisCfg := statsredis.DefaultConfig()
		redisCfg.URL = cfg.redisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("cleanup error", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:   logger,
		WS:       app.Hub,
		Stats:    app.Stats,
		Registry: app.Registry,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.bind
	serverConfig.Port = cfg.port
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			logger.Info("shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.storage),
		slog.Int("grace_ticks", cfg.graceTicks),
		slog.Duration("tick_interval", cfg.tickInterval))

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}
