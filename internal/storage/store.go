// Package storage defines the snapshot persistence port and the JSON codec
// shared by the store implementations in its subpackages.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pocketledger/internal/core"
)

var (
	// ErrNoSnapshot is returned by stores that address snapshots by name
	// when the named snapshot does not exist.
	ErrNoSnapshot = errors.New("no snapshot")
	ErrClosed     = errors.New("store closed")
)

// SnapshotStore loads and saves the whole ledger.
//
// Load reports ok == false when nothing has ever been saved. Stores never
// adjust the totals they are given: what Save receives is what Load returns.
type SnapshotStore interface {
	Load(ctx context.Context) (snap core.Snapshot, ok bool, err error)
	Save(ctx context.Context, snap core.Snapshot) error
	Close() error
}

// EncodeSnapshot renders snap in the persisted JSON layout.
func EncodeSnapshot(snap core.Snapshot) ([]byte, error) {
	if snap.Transactions == nil {
		snap.Transactions = []core.Transaction{}
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot parses the persisted JSON layout. Missing totals decode as
// zero and a missing transaction list as empty.
func DecodeSnapshot(data []byte) (core.Snapshot, error) {
	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Transactions == nil {
		snap.Transactions = []core.Transaction{}
	}
	return snap, nil
}
