// Package service orchestrates the ledger with its collaborators: the
// snapshot store, the event publisher and the stats cache.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"pocketledger/internal/amqp"
	"pocketledger/internal/cache"
	"pocketledger/internal/category"
	"pocketledger/internal/core"
	"pocketledger/internal/ledger"
	"pocketledger/internal/log"
	"pocketledger/internal/stats"
	"pocketledger/internal/storage"
)

// EventPublisher sends committed ledger events to other processes.
type EventPublisher interface {
	Publish(ctx context.Context, ev amqp.LedgerEvent) error
}

// Options configures a LedgerService. Store is required.
type Options struct {
	Store       storage.SnapshotStore
	Publisher   EventPublisher
	Registry    *category.Registry
	LoadMode    ledger.LoadMode
	WeekStart   core.WeekStart
	ReportCache cache.Cache[stats.Report]
	Clock       func() time.Time
	Logger      *log.Logger
	// LedgerOptions are passed to ledger.New.
	LedgerOptions []ledger.Option
}

// LedgerService is the single writer of one Ledger. Each mutation runs the
// ledger transition, persists the resulting snapshot and publishes an event.
// Persistence failures are returned; publish failures are only logged.
type LedgerService struct {
	ledger    *ledger.Ledger
	store     storage.SnapshotStore
	publisher EventPublisher
	registry  *category.Registry
	loadMode  ledger.LoadMode
	weekStart core.WeekStart
	reports   cache.Cache[stats.Report]
	now       func() time.Time
	logger    *log.Logger

	// Serializes transition, save and publish so the store and the event
	// stream see transitions in ledger order.
	mu sync.Mutex
}

func NewLedgerService(opts Options) (*LedgerService, error) {
	if opts.Store == nil {
		return nil, errors.New("snapshot store is required")
	}
	if opts.Registry == nil {
		opts.Registry = category.Default()
	}
	if opts.ReportCache == nil {
		opts.ReportCache = cache.NewLRUCache[stats.Report](64, 5*time.Minute)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	ledgerOpts := append([]ledger.Option{ledger.WithClock(opts.Clock)}, opts.LedgerOptions...)

	return &LedgerService{
		ledger:    ledger.New(ledgerOpts...),
		store:     opts.Store,
		publisher: opts.Publisher,
		registry:  opts.Registry,
		loadMode:  opts.LoadMode,
		weekStart: opts.WeekStart,
		reports:   opts.ReportCache,
		now:       opts.Clock,
		logger:    opts.Logger.WithComponent(log.ComponentLedger),
	}, nil
}

// Bootstrap loads the persisted snapshot, if any, with the configured load
// mode. It should run once before the service takes traffic.
func (s *LedgerService) Bootstrap(ctx context.Context) error {
	snap, ok, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		s.logger.InfoContext(ctx, "No snapshot found, starting with an empty ledger")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.Load(snap, s.loadMode); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if err := s.ledger.Verify(); err != nil {
		s.logger.WarnContext(ctx, "Loaded totals drift from transactions", log.FieldError, err, "load_mode", s.loadMode.String())
	}
	s.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldOperation, log.OpLoad,
		"transactions", s.ledger.Len(),
		"load_mode", s.loadMode.String())
	return nil
}

// Add validates in and records a new transaction.
func (s *LedgerService) Add(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.ledger.Snapshot()
	tx := s.ledger.Add(in)
	s.logger.InfoContext(ctx, "Transaction added", log.NewFields().
		WithOperation(log.OpAdd).
		WithTransaction(tx.ID, string(tx.Type), tx.Category, tx.Amount.Cents).ToSlice()...)
	return tx, s.commit(ctx, prev, amqp.NewTransactionEvent(amqp.EventTransactionAdded, tx, s.ledger.Version()))
}

// Remove deletes id. A missing id is not an error: the result reports
// Found == false and nothing is persisted or published.
func (s *LedgerService) Remove(ctx context.Context, id string) (ledger.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.ledger.Snapshot()
	res := s.ledger.Remove(id)
	s.logger.InfoContext(ctx, "Remove transaction", log.FieldOperation, log.OpRemove, log.FieldTxID, id, log.FieldFound, res.Found)
	if !res.Found {
		return res, nil
	}
	return res, s.commit(ctx, prev, amqp.NewTransactionEvent(amqp.EventTransactionRemoved, res.Transaction, s.ledger.Version()))
}

// Update applies patch to id. A missing id reports Found == false.
func (s *LedgerService) Update(ctx context.Context, id string, patch core.TransactionPatch) (ledger.Result, error) {
	if err := patch.Validate(); err != nil {
		return ledger.Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.ledger.Snapshot()
	res := s.ledger.Update(id, patch)
	s.logger.InfoContext(ctx, "Update transaction", log.FieldOperation, log.OpUpdate, log.FieldTxID, id, log.FieldFound, res.Found)
	if !res.Found {
		return res, nil
	}
	return res, s.commit(ctx, prev, amqp.NewTransactionEvent(amqp.EventTransactionUpdated, res.Transaction, s.ledger.Version()))
}

// SetMonthlyBudget stores the budget. Zero clears it; negative amounts are
// rejected.
func (s *LedgerService) SetMonthlyBudget(ctx context.Context, budget core.Money) error {
	if budget.IsNegative() {
		return core.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.ledger.Snapshot()
	s.ledger.SetMonthlyBudget(budget)
	s.logger.InfoContext(ctx, "Monthly budget set", log.FieldOperation, log.OpBudget, log.FieldAmountCents, budget.Cents)
	return s.commit(ctx, prev, amqp.NewBudgetEvent(budget, s.ledger.Version()))
}

// ClearAll removes every transaction and keeps the budget.
func (s *LedgerService) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.ledger.Snapshot()
	s.ledger.ClearAll()
	s.logger.InfoContext(ctx, "Ledger cleared", log.FieldOperation, log.OpClear)
	return s.commit(ctx, prev, amqp.NewClearedEvent(s.ledger.Version()))
}

// Restore replaces the ledger with snap using the configured load mode and
// persists the result.
func (s *LedgerService) Restore(ctx context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.ledger.Snapshot()
	if err := s.ledger.Load(snap, s.loadMode); err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}
	s.logger.InfoContext(ctx, "Ledger restored", log.FieldOperation, log.OpLoad, "transactions", s.ledger.Len())
	return s.commit(ctx, prev, amqp.NewLoadedEvent(s.ledger.Snapshot(), s.ledger.Version()))
}

// commit persists the current snapshot and publishes ev. When the save
// fails the ledger is put back to prev, so memory never holds a change the
// store does not. Callers hold mu.
func (s *LedgerService) commit(ctx context.Context, prev core.Snapshot, ev amqp.LedgerEvent) error {
	if err := s.store.Save(ctx, s.ledger.Snapshot()); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist snapshot, rolling back",
			log.FieldOperation, log.OpSave,
			log.FieldVersion, ev.Version,
			log.FieldError, err)
		if rbErr := s.ledger.Load(prev, ledger.LoadTrust); rbErr != nil {
			return fmt.Errorf("persist snapshot: %w (rollback: %v)", err, rbErr)
		}
		return fmt.Errorf("persist snapshot: %w", err)
	}
	s.publish(ctx, ev)
	return nil
}

func (s *LedgerService) publish(ctx context.Context, ev amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		// The snapshot is saved; the worker's reconcile pass repairs the mirror.
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldEventKind, string(ev.Kind),
			log.FieldVersion, ev.Version,
			log.FieldError, err)
	}
}

func (s *LedgerService) Get(id string) ledger.Result {
	return s.ledger.Get(id)
}

// Transactions returns the ledger's transactions filtered and sorted by q.
func (s *LedgerService) Transactions(q stats.Query) ([]core.Transaction, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q.Apply(s.ledger.Transactions(), s.now(), s.weekStart), nil
}

func (s *LedgerService) Totals() core.Totals {
	return s.ledger.Totals()
}

func (s *LedgerService) Snapshot() core.Snapshot {
	return s.ledger.Snapshot()
}

func (s *LedgerService) Version() uint64 {
	return s.ledger.Version()
}

func (s *LedgerService) Registry() *category.Registry {
	return s.registry
}

func (s *LedgerService) WeekStart() core.WeekStart {
	return s.weekStart
}

// Report returns the stats report for the current ledger state. Reports are
// cached per ledger version and calendar day, so any transition or a new
// day produces a fresh one.
func (s *LedgerService) Report() stats.Report {
	now := s.now()
	version := s.ledger.Version()
	key := reportKey(version, now, s.weekStart)
	if r, ok := s.reports.Get(key); ok {
		return r
	}
	snap := s.ledger.Snapshot()
	r := stats.BuildReport(snap, stats.ReportParams{
		Now:       now,
		WeekStart: s.weekStart,
		Registry:  s.registry,
	})
	// A transition between the two reads would file newer figures under
	// the old version.
	if s.ledger.Version() == version {
		s.reports.Set(key, r)
	}
	return r
}

func reportKey(version uint64, now time.Time, weekStart core.WeekStart) string {
	return strconv.FormatUint(version, 10) + "|" + now.Format("2006-01-02") + "|" + weekStart.String()
}

// Close closes the store and, when it supports it, the publisher.
func (s *LedgerService) Close() error {
	var errs []error
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
