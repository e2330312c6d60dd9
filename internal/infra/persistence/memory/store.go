// Package memory provides an in-memory snapshot store used for tests and
// ephemeral sessions.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"phreeqcore/internal/persistence/core"
)

var _ core.Store = (*Store)(nil)

// Store keeps encoded snapshots in a map. Snapshots are stored as JSON so a
// loaded value never aliases the saved one and carries the same value types
// the SQL backends return.
type Store struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{items: make(map[string][]byte)}
}

// SaveSnapshot stores snap under its key, replacing any previous value.
func (s *Store) SaveSnapshot(_ context.Context, snap core.Snapshot) error {
	if snap.Key == "" {
		return core.ErrEmptyKey
	}
	payload, err := Encode(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[snap.Key] = payload
	return nil
}

// LoadSnapshot returns the snapshot saved under key.
func (s *Store) LoadSnapshot(_ context.Context, key string) (core.Snapshot, error) {
	s.mu.RLock()
	payload, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return core.Snapshot{}, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return Decode(payload)
}

// DeleteSnapshot removes key. Deleting a missing key is not an error.
func (s *Store) DeleteSnapshot(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// ListSnapshots returns the stored keys in lexical order.
func (s *Store) ListSnapshots(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Driver reports the memory driver.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Encode marshals a snapshot for storage.
func Encode(snap core.Snapshot) ([]byte, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", snap.Key, err)
	}
	return payload, nil
}

// Decode unmarshals a stored snapshot.
func Decode(payload []byte) (core.Snapshot, error) {
	var snap core.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
