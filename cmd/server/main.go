package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/domonhunt/internal/api"
	"github.com/mcoot/domonhunt/internal/config"
	"github.com/mcoot/domonhunt/internal/factory"
)

// hubCleanupInterval is how often channels nobody watches are dropped
const hubCleanupInterval = time.Minute

func main() {
	settings, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	level, _ := settings.Level()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := run(settings, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(settings *config.Config, logger *slog.Logger) error {
	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := factory.ConfigFromSettings(settings, logger)
	if err != nil {
		return err
	}

	// Create application factory
	app, err := factory.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	if err := app.Load(ctx); err != nil {
		return err
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		Bot:             app.Bot,
		Ledger:          app.Ledger,
		SpawnController: app.SpawnController,
		BattleManager:   app.BattleManager,
		Catalog:         app.Catalog,
		Clock:           app.Clock,
		Hubs:            app.Hubs,
		Metrics:         app.Metrics,
		GatewayToken:    settings.GatewayToken,
		AllowedOrigins:  settings.AllowedOrigins,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Addr = settings.Addr
	server := api.NewServer(router, serverConfig, logger)

	if settings.OwnerID == "" {
		logger.Warn("owner_id is not set, privileged commands are disabled")
	}

	if err := server.Listen(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		return app.SpawnController.Run(gctx)
	})
	g.Go(func() error {
		return app.Hubs.RunCleanup(gctx, hubCleanupInterval)
	})

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", settings.Storage),
	)
	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}
