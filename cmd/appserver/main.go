package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/angeloszaimis/two-tier-relay/config"
	"github.com/angeloszaimis/two-tier-relay/internal/httpserver"
	"github.com/angeloszaimis/two-tier-relay/internal/tracing"
	"github.com/angeloszaimis/two-tier-relay/pkg/logger"
)

const serviceName = "app-server"

func main() {
	cfg, err := config.Load(config.RoleApp)
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log, closeLog, err := logger.New(logger.Options{
		Level:       cfg.Logging.Level,
		AddSource:   true,
		Environment: cfg.Server.Environment,
		Service:     serviceName,
		File:        cfg.Logging.File,
	})
	if err != nil {
		slog.Error("failed to open log file", slog.String("file", cfg.Logging.File), slog.Any("err", err))
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, log); err != nil {
		log.Error("App server stopped with error", slog.Any("err", err))
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, serviceName, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Error("Failed to flush traces", slog.Any("err", err))
		}
	}()

	handler, err := setupRouter(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv, err := httpserver.New(cfg.Server.Address, handler, log)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
