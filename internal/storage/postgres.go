package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS shoplist_snapshots (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres stores snapshots in PostgreSQL through a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the database at dsn and ensures the snapshot
// table exists.
func OpenPostgres(ctx context.Context, dsn string, maxConns int32) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Pool exposes the underlying pool for maintenance tasks.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM shoplist_snapshots WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get %q: %w", key, err)
	}
	return value, nil
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO shoplist_snapshots (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("postgres put %q: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM shoplist_snapshots WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres delete %q: %w", key, err)
	}
	return nil
}

func (p *Postgres) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT key FROM shoplist_snapshots WHERE left(key, char_length($1)) = $1 ORDER BY key`, prefix)
	if err != nil {
		return nil, fmt.Errorf("postgres keys %q: %w", prefix, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres scan keys: %w", err)
	}
	return keys, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
