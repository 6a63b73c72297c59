package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"trackpro-client/internal/app"
	"trackpro-client/internal/config"
	"trackpro-client/internal/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer lg.Sync() //nolint:errcheck

	srv, err := app.NewServer(cfg.DevAPI, lg)
	if err != nil {
		lg.Fatal("failed to build dev backend", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		lg.Error("dev backend stopped with error", zap.Error(err))
		os.Exit(1)
	}
	lg.Info("dev backend stopped gracefully")
}
