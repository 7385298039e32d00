package admin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/shoplist/internal/core"
	"github.com/JonMunkholm/shoplist/internal/storage"
)

func seededStore(t *testing.T) *storage.Memory {
	t.Helper()
	mem := storage.NewMemory()
	ctx := context.Background()
	for _, k := range []string{
		core.MasterKey,
		core.UsersKey,
		core.SnapshotKeyPrefix + "anonymous",
		core.SnapshotKeyPrefix + "ana",
		"unrelated",
	} {
		if err := mem.Put(ctx, k, []byte("{}")); err != nil {
			t.Fatalf("Put(%q) error = %v", k, err)
		}
	}
	return mem
}

func remaining(t *testing.T, mem *storage.Memory) string {
	t.Helper()
	keys, err := mem.Keys(context.Background(), "")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	return strings.Join(keys, ",")
}

func TestPurge_Lists(t *testing.T) {
	mem := seededStore(t)
	r := &Resetter{Store: mem}

	deleted, err := r.Purge(context.Background(), ScopeLists)
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted = %v, want the two lists", deleted)
	}
	if got, want := remaining(t, mem), "master_products_list,registered_users,unrelated"; got != want {
		t.Errorf("remaining = %q, want %q", got, want)
	}
}

func TestPurge_All(t *testing.T) {
	mem := seededStore(t)
	r := &Resetter{Store: mem}

	deleted, err := r.Purge(context.Background(), ScopeAll)
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if len(deleted) != 4 {
		t.Errorf("deleted = %v, want 4 keys", deleted)
	}
	if got := remaining(t, mem); got != "unrelated" {
		t.Errorf("remaining = %q, want %q", got, "unrelated")
	}

	// Purging an empty store is fine.
	deleted, err = r.Purge(context.Background(), ScopeAll)
	if err != nil || len(deleted) != 0 {
		t.Errorf("second Purge() = %v, %v; want nothing deleted", deleted, err)
	}
}

func TestPurge_StoreFailure(t *testing.T) {
	mem := seededStore(t)
	mem.FailWith = errors.New("disk full")
	r := &Resetter{Store: mem}

	if _, err := r.Purge(context.Background(), ScopeLists); err == nil {
		t.Fatal("Purge() error = nil, want store failure")
	}
}
