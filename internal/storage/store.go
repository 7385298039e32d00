// Package storage persists list snapshots as opaque values under string keys.
//
// Four backends satisfy [Store]: an in-process map, SQLite (modernc, no
// cgo), PostgreSQL through pgxpool, and Redis. [Open] picks one from
// configuration.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/shoplist/internal/config"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is a key/value store for serialized snapshots.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists stored keys starting with prefix, sorted ascending.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverMemory:
		return NewMemory(), nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, int32(cfg.MaxConns))
	case config.DriverRedis:
		return OpenRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
