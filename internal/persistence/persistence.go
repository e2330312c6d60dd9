// Package persistence re-exports the metadata snapshot abstractions and opens
// the configured backend.
package persistence

import (
	"fmt"
	"os"

	"phreeqcore/internal/infra/persistence/memory"
	"phreeqcore/internal/infra/persistence/postgres"
	"phreeqcore/internal/infra/persistence/sqlite"
	"phreeqcore/internal/persistence/core"
)

type (
	// Driver identifies a metadata store backend.
	Driver = core.Driver
	// Counters records per-kind entity counters.
	Counters = core.Counters
	// Snapshot is the persisted session metadata of a dump.
	Snapshot = core.Snapshot
	// Store is the interface for metadata backends.
	Store = core.Store
)

const (
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
	// DriverSQLite is the SQLite driver.
	DriverSQLite = core.DriverSQLite
	// DriverPostgres is the Postgres driver.
	DriverPostgres = core.DriverPostgres
)

var (
	// ErrNotFound indicates no snapshot exists under a key.
	ErrNotFound = core.ErrNotFound
	// ErrEmptyKey indicates a snapshot without a key.
	ErrEmptyKey = core.ErrEmptyKey
)

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memory.NewStore() }

// NewSQLite opens a SQLite Store at path.
func NewSQLite(path string) (Store, error) { return sqlite.NewStore(path) }

// Open selects a Store implementation using environment variables.
//
//	PHREEQ_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	PHREEQ_SQLITE_PATH: path to sqlite file (default ./phreeq.db)
//	PHREEQ_POSTGRES_DSN: postgres DSN when driver=postgres
func Open() (Store, error) {
	driver := os.Getenv("PHREEQ_STORAGE_DRIVER")
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(os.Getenv("PHREEQ_SQLITE_PATH"))
	case DriverPostgres:
		return postgres.NewStore(os.Getenv("PHREEQ_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
