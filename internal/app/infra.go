package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/danmarauda/araps-mobile-app/internal/config"
	"github.com/danmarauda/araps-mobile-app/internal/credstore"
	"github.com/danmarauda/araps-mobile-app/internal/db"
	"github.com/danmarauda/araps-mobile-app/internal/logger"
	"github.com/danmarauda/araps-mobile-app/internal/redis"
)

func openDatabase(ctx context.Context, cfg config.Config) (*db.DB, error) {
	handle, err := sql.Open("postgres", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := handle.PingContext(pingCtx); err != nil {
		handle.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := db.RunDirectoryMigration(ctx, handle); err != nil {
		handle.Close()
		return nil, fmt.Errorf("directory migration: %w", err)
	}

	return &db.DB{DB: handle}, nil
}

// openCredentialStore selects the vault backend. Kiosk fleets share a Redis
// vault; single-terminal installs get the encrypted file vault.
func openCredentialStore(cfg config.Config) (credstore.Store, func(), error) {
	if cfg.RedisAddr != "" {
		client, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis vault: %w", err)
		}
		logger.Info("using redis credential vault", map[string]any{"addr": cfg.RedisAddr})
		return credstore.NewRedisStore(client.Client), func() { client.Close() }, nil
	}

	store, err := credstore.NewFileStore(cfg.VaultPath, []byte(cfg.VaultSecret))
	if err != nil {
		return nil, nil, fmt.Errorf("open file vault: %w", err)
	}
	logger.Info("using file credential vault", map[string]any{"path": cfg.VaultPath})
	return store, func() {}, nil
}
