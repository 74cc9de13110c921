package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"finlink/internal/shared/config"
	"finlink/internal/shared/logger"
	"finlink/internal/shared/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	appLog, err := logger.New(cfg.Log.Development, logger.LogLevel(cfg.Log.Level))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer appLog.Sync()

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.Init(context.Background(), cfg.Telemetry, appLog)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(ctx); err != nil {
				appLog.Error("telemetry shutdown failed", zap.Error(err))
			}
		}()
		appLog.Info("telemetry enabled",
			zap.String("otlp_endpoint", cfg.Telemetry.OTLPEndpoint),
			zap.String("metrics_port", cfg.Telemetry.MetricsPort),
		)
	}

	deps, err := NewDependencies(cfg, appLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			appLog.Error("failed to release dependencies", zap.Error(err))
		}
	}()

	handler := SetupRoutes(deps, cfg, appLog)
	srv, redirectSrv, serverErr := StartServers(NewServerConfigFromConfig(handler, cfg), appLog)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLog.Info("received signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		GracefulShutdown(srv, redirectSrv, appLog, shutdownTimeout)
		return fmt.Errorf("server error: %w", err)
	}

	GracefulShutdown(srv, redirectSrv, appLog, shutdownTimeout)
	return nil
}
