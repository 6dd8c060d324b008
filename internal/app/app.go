// Package app wires configuration, storage, providers and the control API
// into one runnable terminal agent.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmarauda/araps-mobile-app/internal/config"
	"github.com/danmarauda/araps-mobile-app/internal/logger"
	"github.com/danmarauda/araps-mobile-app/internal/session"
)

type App struct {
	cfg        config.Config
	manager    *session.Manager
	httpServer *http.Server
	cleanup    []func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{cfg: cfg}

	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.cleanup = append(a.cleanup, func() { database.Close() })

	store, closeStore, err := openCredentialStore(cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	a.cleanup = append(a.cleanup, closeStore)

	manager, adapter, err := buildManager(ctx, cfg, store, database)
	if err != nil {
		a.close()
		return nil, err
	}
	a.manager = manager

	a.httpServer = &http.Server{
		Addr:    "127.0.0.1:" + cfg.AppPort,
		Handler: buildRouter(manager, adapter),
	}

	return a, nil
}

// Run restores any cached session, then serves the control API until the
// server is shut down.
func (a *App) Run(ctx context.Context) error {
	a.manager.Start(ctx)
	logger.Info("control api listening", map[string]any{
		"addr":  a.httpServer.Addr,
		"state": string(a.manager.State()),
	})

	if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	a.close()
	return err
}

func (a *App) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}
