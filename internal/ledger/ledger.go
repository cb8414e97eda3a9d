// Package ledger owns the transaction list and its incrementally maintained
// running totals.
//
// Every mutating operation is an atomic transition applied under a single
// writer lock. Totals are never recomputed on write: each transition applies
// the exact inverse and forward deltas of the transactions it touches, so
// after every operation
//
//	totalIncome   == Σ amount of Income transactions
//	totalExpenses == Σ amount of Expense transactions
//	balance       == totalIncome - totalExpenses
//
// Missing ids are not errors: Remove and Update report Found == false and
// leave the ledger untouched.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pocketledger/internal/core"
)

// ErrSnapshotMismatch reports stored totals that disagree with a fold over
// the transactions they belong to.
var ErrSnapshotMismatch = errors.New("snapshot totals do not match transactions")

// Observer receives the ledger state after each transition. Observers run on
// the writer path, in transition order, and must not mutate the ledger.
type Observer func(core.Snapshot)

// Result is the outcome of an id-addressed operation.
type Result struct {
	Transaction core.Transaction
	Found       bool
}

// Ledger is the aggregate root. The zero value is not usable; call New.
type Ledger struct {
	// writeMu serializes transitions together with observer publication.
	writeMu sync.Mutex
	// mu guards the state below for readers.
	mu sync.RWMutex

	transactions []core.Transaction // newest first
	income       core.Money
	expenses     core.Money
	balance      core.Money
	budget       core.Money
	version      uint64

	now       func() time.Time
	newID     func() string
	observers []Observer
}

type Option func(*Ledger)

// WithClock replaces time.Now for createdAt/updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// WithObserver registers an observer notified after every transition.
func WithObserver(o Observer) Option {
	return func(l *Ledger) { l.observers = append(l.observers, o) }
}

// New returns an empty ledger with zero totals and budget.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		transactions: []core.Transaction{},
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add records a new transaction at the head of the list and returns it with
// its assigned id and creation time. Input is not validated here.
func (l *Ledger) Add(in core.TransactionInput) core.Transaction {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	tx := core.Transaction{
		ID:          l.newID(),
		Title:       in.Title,
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    in.Category,
		Description: in.Description,
		CreatedAt:   l.now(),
	}
	l.transactions = append([]core.Transaction{tx}, l.transactions...)
	l.applyDelta(tx, 1)
	snap := l.commitLocked()
	l.mu.Unlock()

	l.publish(snap)
	return tx.Clone()
}

// Remove deletes the transaction with id after undoing its contribution to
// the totals. Removing an unknown id is a no-op.
func (l *Ledger) Remove(id string) Result {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		l.mu.Unlock()
		return Result{}
	}
	removed := l.transactions[i]
	l.applyDelta(removed, -1)
	l.transactions = append(l.transactions[:i:i], l.transactions[i+1:]...)
	snap := l.commitLocked()
	l.mu.Unlock()

	l.publish(snap)
	return Result{Transaction: removed.Clone(), Found: true}
}

// Update replaces the fields present in patch, refreshing updatedAt. The old
// transaction's delta is undone before the new one is applied, so type and
// amount may both change. Updating an unknown id is a no-op.
func (l *Ledger) Update(id string, patch core.TransactionPatch) Result {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		l.mu.Unlock()
		return Result{}
	}
	old := l.transactions[i]
	updated := patch.Apply(old)
	stamp := l.now()
	updated.UpdatedAt = &stamp

	l.applyDelta(old, -1)
	l.applyDelta(updated, 1)
	l.transactions[i] = updated
	snap := l.commitLocked()
	l.mu.Unlock()

	l.publish(snap)
	return Result{Transaction: updated.Clone(), Found: true}
}

// SetMonthlyBudget replaces the budget. Totals are not touched. Setting the
// current value again is a no-op.
func (l *Ledger) SetMonthlyBudget(budget core.Money) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	if l.budget == budget {
		l.mu.Unlock()
		return
	}
	l.budget = budget
	snap := l.commitLocked()
	l.mu.Unlock()

	l.publish(snap)
}

// ClearAll empties the transaction list and zeroes the totals. The monthly
// budget is a standing preference and survives. Clearing an already empty
// ledger is a no-op.
func (l *Ledger) ClearAll() {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	if len(l.transactions) == 0 && l.income.IsZero() && l.expenses.IsZero() && l.balance.IsZero() {
		l.mu.Unlock()
		return
	}
	l.transactions = []core.Transaction{}
	l.income, l.expenses, l.balance = core.Money{}, core.Money{}, core.Money{}
	snap := l.commitLocked()
	l.mu.Unlock()

	l.publish(snap)
}

// Load replaces the whole aggregate from snap. See LoadMode for how stored
// totals are treated. In LoadStrict mode a mismatching snapshot is rejected
// and the ledger is left unchanged.
func (l *Ledger) Load(snap core.Snapshot, mode LoadMode) error {
	switch mode {
	case LoadTrust:
	case LoadRecompute:
		snap = snap.Recomputed()
	case LoadStrict:
		if !snap.Consistent() {
			income, expenses := core.Fold(snap.Transactions)
			return fmt.Errorf("%w: stored income=%s expenses=%s balance=%s, computed income=%s expenses=%s",
				ErrSnapshotMismatch,
				snap.TotalIncome, snap.TotalExpenses, snap.Balance,
				income, expenses)
		}
	default:
		return fmt.Errorf("unknown load mode %d", mode)
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	l.transactions = cloneAll(snap.Transactions)
	l.income = snap.TotalIncome
	l.expenses = snap.TotalExpenses
	l.balance = snap.Balance
	l.budget = snap.MonthlyBudget
	out := l.commitLocked()
	l.mu.Unlock()

	l.publish(out)
	return nil
}

// Get returns the transaction with id.
func (l *Ledger) Get(id string) Result {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.indexLocked(id)
	if i < 0 {
		return Result{}
	}
	return Result{Transaction: l.transactions[i].Clone(), Found: true}
}

// Transactions returns a copy of the list, newest first by insertion.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneAll(l.transactions)
}

// Totals returns the running sums and the budget.
func (l *Ledger) Totals() core.Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return core.Totals{Income: l.income, Expenses: l.expenses, Balance: l.balance, Budget: l.budget}
}

// Snapshot returns a deep copy of the ledger, safe to hand to concurrent
// readers.
func (l *Ledger) Snapshot() core.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Version increases by one with every transition that changed state.
func (l *Ledger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Len returns the number of transactions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.transactions)
}

// Verify folds the transaction list and reports drift between it and the
// running totals.
func (l *Ledger) Verify() error {
	snap := l.Snapshot()
	if snap.Consistent() {
		return nil
	}
	income, expenses := core.Fold(snap.Transactions)
	return fmt.Errorf("%w: running income=%s expenses=%s balance=%s, folded income=%s expenses=%s",
		ErrSnapshotMismatch,
		snap.TotalIncome, snap.TotalExpenses, snap.Balance,
		income, expenses)
}

// applyDelta adds sign × t's contribution to the running totals. Types other
// than Expense and Income contribute nothing, matching core.Fold.
func (l *Ledger) applyDelta(t core.Transaction, sign int64) {
	amount := core.Money{Cents: sign * t.Amount.Cents}
	switch t.Type {
	case core.Expense:
		l.expenses = l.expenses.Add(amount)
		l.balance = l.balance.Sub(amount)
	case core.Income:
		l.income = l.income.Add(amount)
		l.balance = l.balance.Add(amount)
	}
}

func (l *Ledger) indexLocked(id string) int {
	for i := range l.transactions {
		if l.transactions[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) commitLocked() core.Snapshot {
	l.version++
	if len(l.observers) == 0 {
		return core.Snapshot{}
	}
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() core.Snapshot {
	return core.Snapshot{
		Transactions:  cloneAll(l.transactions),
		TotalExpenses: l.expenses,
		TotalIncome:   l.income,
		Balance:       l.balance,
		MonthlyBudget: l.budget,
	}
}

func (l *Ledger) publish(snap core.Snapshot) {
	for _, o := range l.observers {
		o(snap)
	}
}

func cloneAll(in []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}
