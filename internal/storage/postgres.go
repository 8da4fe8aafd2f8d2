package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements chat.Store on a shared PostgreSQL table, for
// front-ends that keep sessions on a server rather than on the device.
type PostgresStore struct {
	pool  *pgxpool.Pool
	scope string
}

// NewPostgresStore connects to databaseURL and ensures the table exists.
func NewPostgresStore(ctx context.Context, databaseURL, scope string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	for _, stmt := range pgMigrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &PostgresStore{pool: pool, scope: scope}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM chat_kv WHERE scope = $1 AND key = $2`,
		s.scope, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_kv (scope, key, value, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (scope, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		s.scope, key, value,
	)
	return err
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM chat_kv WHERE scope = $1 AND key = $2`,
		s.scope, key,
	)
	return err
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
