package storage

import (
	"context"
	"fmt"

	"gc-portfolio/internal/chat"
	"gc-portfolio/internal/config"
)

// Store is a chat.Store that owns a connection.
type Store interface {
	chat.Store
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLiteStore(cfg.Path, cfg.Scope)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres storage requires a database URL")
		}
		return NewPostgresStore(ctx, cfg.DatabaseURL, cfg.Scope)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
