// Package admin provides maintenance operations on the snapshot store.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/shoplist/internal/core"
	"github.com/JonMunkholm/shoplist/internal/storage"
)

// ResetTimeout is the maximum duration for a purge.
const ResetTimeout = 30 * time.Second

// Scope selects what a purge removes.
type Scope int

const (
	// ScopeLists removes every saved list.
	ScopeLists Scope = iota
	// ScopeAll also removes the master catalog and the user registry.
	ScopeAll
)

// Resetter purges persisted state. Running services keep their cached
// sessions; close them or restart after a purge.
type Resetter struct {
	Store storage.Store
}

type purgeFn func(ctx context.Context) ([]string, error)

// Purge deletes the keys selected by scope and returns them. It stops at the
// first failing delete; keys removed before it stay removed.
func (r *Resetter) Purge(ctx context.Context, scope Scope) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	steps := []purgeFn{r.prefix(core.SnapshotKeyPrefix)}
	if scope == ScopeAll {
		steps = append(steps, r.key(core.MasterKey), r.key(core.UsersKey))
	}
	return r.runPurges(ctx, steps)
}

func (r *Resetter) runPurges(ctx context.Context, steps []purgeFn) ([]string, error) {
	var deleted []string
	for _, step := range steps {
		keys, err := step(ctx)
		deleted = append(deleted, keys...)
		if err != nil {
			return deleted, err
		}
	}
	slog.Info("store purged", "keys", len(deleted))
	return deleted, nil
}

func (r *Resetter) prefix(prefix string) purgeFn {
	return func(ctx context.Context) ([]string, error) {
		keys, err := r.Store.Keys(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("list %q keys: %w", prefix, err)
		}
		var deleted []string
		for _, k := range keys {
			if err := r.Store.Delete(ctx, k); err != nil {
				return deleted, fmt.Errorf("delete %q: %w", k, err)
			}
			deleted = append(deleted, k)
		}
		return deleted, nil
	}
}

// key deletes a single key, reporting it only when it existed.
func (r *Resetter) key(key string) purgeFn {
	return func(ctx context.Context) ([]string, error) {
		keys, err := r.Store.Keys(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", key, err)
		}
		for _, k := range keys {
			if k != key {
				continue
			}
			if err := r.Store.Delete(ctx, key); err != nil {
				return nil, fmt.Errorf("delete %q: %w", key, err)
			}
			return []string{key}, nil
		}
		return nil, nil
	}
}
