// Package core defines the metadata snapshot model shared by the persistence
// backends.
package core

import (
	"context"
	"errors"
	"time"
)

// Driver identifies a concrete metadata store implementation.
type Driver string

const (
	// DriverMemory keeps snapshots in process memory.
	DriverMemory Driver = "memory" // tests, ephemeral runs
	// DriverSQLite stores snapshots in a single SQLite file.
	DriverSQLite Driver = "sqlite" // default
	// DriverPostgres stores snapshots in a Postgres table.
	DriverPostgres Driver = "postgres"
)

// Counters records the per-kind entity counters of a session.
type Counters struct {
	Solutions int `json:"solutions"`
	Gases     int `json:"gases"`
	Phases    int `json:"phases"`
	Surfaces  int `json:"surfaces"`
}

// Snapshot is the session state a raw engine dump cannot carry: counters and
// the extraneous metadata of each dumped solution.
type Snapshot struct {
	Key        string                 `json:"key"`
	Session    string                 `json:"session"`
	Counters   Counters               `json:"counters"`
	Extraneous map[int]map[string]any `json:"extraneous,omitempty"`
	SavedAt    time.Time              `json:"saved_at"`
}

// Store persists snapshots keyed by dump key.
type Store interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	LoadSnapshot(ctx context.Context, key string) (Snapshot, error)
	DeleteSnapshot(ctx context.Context, key string) error
	ListSnapshots(ctx context.Context) ([]string, error)
	Driver() Driver
	Close() error
}

// ErrNotFound is returned when no snapshot exists under a key.
var ErrNotFound = errors.New("persistence: snapshot not found")

// ErrEmptyKey is returned when a snapshot is saved without a key.
var ErrEmptyKey = errors.New("persistence: empty snapshot key")
