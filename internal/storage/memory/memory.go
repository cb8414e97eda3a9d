// Package memory keeps the ledger snapshot in process memory.
package memory

import (
	"context"
	"sync"

	"pocketledger/internal/core"
	"pocketledger/internal/storage"
)

// Store holds the last saved snapshot in its encoded form, so callers can
// never alias what was saved.
type Store struct {
	mu    sync.RWMutex
	data  []byte
	saves int
}

var _ storage.SnapshotStore = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) Load(ctx context.Context) (core.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return core.Snapshot{}, false, nil
	}
	snap, err := storage.DecodeSnapshot(s.data)
	if err != nil {
		return core.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (s *Store) Save(ctx context.Context, snap core.Snapshot) error {
	b, err := storage.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = b
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *Store) Close() error { return nil }
