// Package sqlite persists session snapshots to a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"phreeqcore/internal/infra/persistence/memory"
	"phreeqcore/internal/persistence/core"
)

var _ core.Store = (*Store)(nil)

const defaultPath = "phreeq.db"

// Store keeps one row per snapshot key with the snapshot encoded as JSON.
type Store struct {
	db   *sqlx.DB
	path string
}

type row struct {
	Key     string `db:"dump_key"`
	Payload []byte `db:"payload"`
}

// NewStore opens (creating if needed) the SQLite file at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		dump_key TEXT PRIMARY KEY,
		session TEXT NOT NULL,
		payload BLOB NOT NULL,
		saved_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// SaveSnapshot upserts snap.
func (s *Store) SaveSnapshot(ctx context.Context, snap core.Snapshot) error {
	if snap.Key == "" {
		return core.ErrEmptyKey
	}
	payload, err := memory.Encode(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots(dump_key,session,payload,saved_at) VALUES(?,?,?,?)
		ON CONFLICT(dump_key) DO UPDATE SET session=excluded.session, payload=excluded.payload, saved_at=excluded.saved_at`,
		snap.Key, snap.Session, payload, snap.SavedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", snap.Key, err)
	}
	return nil
}

// LoadSnapshot reads the snapshot stored under key.
func (s *Store) LoadSnapshot(ctx context.Context, key string) (core.Snapshot, error) {
	var r row
	err := s.db.GetContext(ctx, &r, `SELECT dump_key, payload FROM snapshots WHERE dump_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Snapshot{}, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("select snapshot %s: %w", key, err)
	}
	return memory.Decode(r.Payload)
}

// DeleteSnapshot removes key if present.
func (s *Store) DeleteSnapshot(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE dump_key = ?`, key); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", key, err)
	}
	return nil
}

// ListSnapshots returns stored keys in lexical order.
func (s *Store) ListSnapshots(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, `SELECT dump_key FROM snapshots ORDER BY dump_key`); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return keys, nil
}

// Driver reports the sqlite driver.
func (s *Store) Driver() core.Driver { return core.DriverSQLite }

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for integration testing hooks.
func (s *Store) DB() *sqlx.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
