package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/danmarauda/araps-mobile-app/internal/app"
	"github.com/danmarauda/araps-mobile-app/internal/config"
	"github.com/danmarauda/araps-mobile-app/internal/logger"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config load failed", map[string]any{"error": err.Error()})
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("not configured", map[string]any{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("startup failed", map[string]any{"error": err.Error()})
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down", nil)
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", map[string]any{"error": err.Error()})
		}
	}

	if err := a.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", map[string]any{"error": err.Error()})
	}
}
