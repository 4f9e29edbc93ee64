package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/target/mmk-ui-client/config"
	"github.com/target/mmk-ui-client/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.ConfigureLogger(os.Stdout, cfg.Observability.Logging)

	logStartupInfo(ctx, logger, &cfg)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.BuildCredentialStorage(ctx, bootstrap.StorageDeps{
		Storage: cfg.Storage,
		Redis:   cfg.Redis,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("credential storage: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close credential storage failed", "error", cerr)
		}
	}()

	services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config:  &cfg,
		Storage: storage.Storage,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := services.Close(drainCtx); err != nil {
			logger.Warn("pending session notifications dropped", "error", err)
		}
	}()

	server, err := bootstrap.NewHTTPServer(&bootstrap.HTTPServerConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bootstrap.ServeHTTP(gctx, server, logger)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.InfoContext(ctx, "console stopped")
	return nil
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting console",
		"api_base_url", cfg.API.BaseURL,
		"http_addr", cfg.HTTP.Addr,
		"storage_backend", cfg.Storage.Backend,
		"login_path", cfg.Routes.LoginPath,
		"metrics_enabled", cfg.Observability.Metrics.Enabled,
		"dev", cfg.IsDev,
	)
}
