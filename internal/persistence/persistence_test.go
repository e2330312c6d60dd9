package persistence

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	t.Setenv("PHREEQ_STORAGE_DRIVER", "memory")
	store, err := Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("expected memory driver, got %s", store.Driver())
	}
}

func TestOpenSQLiteDefault(t *testing.T) {
	t.Setenv("PHREEQ_STORAGE_DRIVER", "")
	t.Setenv("PHREEQ_SQLITE_PATH", filepath.Join(t.TempDir(), "meta.db"))
	store, err := Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.Driver() != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %s", store.Driver())
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Setenv("PHREEQ_STORAGE_DRIVER", "cassandra")
	if _, err := Open(); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
