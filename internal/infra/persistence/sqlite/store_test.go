package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"phreeqcore/internal/persistence/core"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "meta.db")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestSQLiteStorePersistAndReload(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()
	snap := core.Snapshot{
		Key:        "dump-1",
		Session:    "abc",
		Counters:   core.Counters{Solutions: 3, Surfaces: 1},
		Extraneous: map[int]map[string]any{1: {"li": 0.5}},
		SavedAt:    time.Now().UTC(),
	}
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file missing: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("reload sqlite store: %v", err)
	}
	defer func() { _ = reloaded.Close() }()
	got, err := reloaded.LoadSnapshot(ctx, "dump-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Counters.Solutions != 3 || got.Counters.Surfaces != 1 {
		t.Fatalf("counters mismatch: %+v", got.Counters)
	}
	if got.Extraneous[1]["li"] != 0.5 {
		t.Fatalf("extraneous mismatch: %#v", got.Extraneous)
	}
	if reloaded.Path() != path || reloaded.DB() == nil {
		t.Fatalf("unexpected path or db handle")
	}
}

func TestSQLiteStoreUpsertListDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	for i, key := range []string{"b", "a", "b"} {
		snap := core.Snapshot{Key: key, Counters: core.Counters{Solutions: i}}
		if err := store.SaveSnapshot(ctx, snap); err != nil {
			t.Fatalf("save %s: %v", key, err)
		}
	}
	keys, err := store.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("unexpected keys %v", keys)
	}
	got, err := store.LoadSnapshot(ctx, "b")
	if err != nil || got.Counters.Solutions != 2 {
		t.Fatalf("expected upserted snapshot, got %+v (%v)", got, err)
	}
	if err := store.DeleteSnapshot(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.LoadSnapshot(ctx, "b"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.Driver() != core.DriverSQLite {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
}

func TestSQLiteStoreErrors(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	if err := store.SaveSnapshot(ctx, core.Snapshot{}); !errors.Is(err, core.ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
	_ = store.DB().Close()
	if err := store.SaveSnapshot(ctx, core.Snapshot{Key: "x"}); err == nil {
		t.Fatalf("expected error on closed db")
	}
	if _, err := store.ListSnapshots(ctx); err == nil {
		t.Fatalf("expected list error on closed db")
	}
	if _, err := store.LoadSnapshot(ctx, "x"); err == nil || errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected query error, got %v", err)
	}
}
