package worker

import (
	"context"
	"fmt"
	"sync"

	"pocketledger/internal/amqp"
	"pocketledger/internal/log"
	"pocketledger/internal/sheets"
	"pocketledger/internal/storage"
)

// SyncWorker replays ledger events into a sheets mirror.
type SyncWorker struct {
	mirror sheets.Mirror
	store  storage.SnapshotStore
	logger *log.Logger

	// Handle and Reconcile both write the whole mirror; they must not
	// interleave.
	mu sync.Mutex
}

// NewSyncWorker creates a worker. store is optional; without it Reconcile
// is a no-op.
func NewSyncWorker(mirror sheets.Mirror, store storage.SnapshotStore, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		mirror: mirror,
		store:  store,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Handle applies one event to the mirror. It satisfies amqp.Handler.
func (w *SyncWorker) Handle(ctx context.Context, ev amqp.LedgerEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	logger := w.logger.With(log.FieldEventKind, string(ev.Kind), log.FieldVersion, ev.Version)
	logger.InfoContext(ctx, "Processing ledger event", log.FieldTxID, ev.TransactionID)

	var err error
	switch ev.Kind {
	case amqp.EventTransactionAdded, amqp.EventTransactionUpdated:
		err = w.mirror.Upsert(ctx, *ev.Transaction)
	case amqp.EventTransactionRemoved:
		err = w.mirror.Delete(ctx, ev.TransactionID)
	case amqp.EventLedgerCleared:
		err = w.mirror.Clear(ctx)
	case amqp.EventBudgetSet:
		err = w.mirror.SetBudget(ctx, *ev.Budget)
	case amqp.EventLedgerLoaded:
		err = w.mirror.Replace(ctx, *ev.Snapshot)
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to sync ledger event", log.FieldError, err)
		return fmt.Errorf("sync %s: %w", ev.Kind, err)
	}
	return nil
}

// Reconcile rebuilds the mirror from the persisted snapshot. This is the
// backup path for events lost while the worker was down.
func (w *SyncWorker) Reconcile(ctx context.Context) error {
	if w.store == nil {
		return nil
	}
	snap, ok, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		w.logger.DebugContext(ctx, "No snapshot to reconcile")
		return nil
	}
	w.mu.Lock()
	err = w.mirror.Replace(ctx, snap)
	w.mu.Unlock()
	if err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}
	w.logger.InfoContext(ctx, "Reconciled mirror", "transactions", len(snap.Transactions))
	return nil
}
