// Package bolt persists the ledger snapshot in a bbolt database.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"pocketledger/internal/core"
	"pocketledger/internal/storage"
)

var (
	bucketLedger = []byte("ledger")
	keySnapshot  = []byte("snapshot")
)

// Store keeps the encoded snapshot under a single key.
type Store struct {
	db *bbolt.DB
}

var _ storage.SnapshotStore = (*Store)(nil)

// Open opens (or creates) the database at path. It waits at most one second
// for the file lock held by another process.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create bolt directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketLedger)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create ledger bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context) (core.Snapshot, bool, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketLedger).Get(keySnapshot); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	if data == nil {
		return core.Snapshot{}, false, nil
	}
	snap, err := storage.DecodeSnapshot(data)
	if err != nil {
		return core.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (s *Store) Save(ctx context.Context, snap core.Snapshot) error {
	data, err := storage.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketLedger).Put(keySnapshot, data)
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
