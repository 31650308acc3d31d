package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"napoleon_server/config"
	"napoleon_server/internal/bootstrap"
	"napoleon_server/pkg/logger"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger.Init(logger.Config{
		Level:   logger.LevelInfo,
		Service: "napoleon",
	})

	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	app, cleanup, err := bootstrap.NewAPI(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize API: %v", err)
	}
	defer cleanup()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server (timeout: %v)...", shutdownTimeout)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- app.Shutdown()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Error("Error shutting down: %v", err)
			} else {
				logger.Info("API server shut down gracefully")
			}
		case <-ctx.Done():
			logger.Warn("API shutdown timed out, forcing exit")
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("Starting API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
