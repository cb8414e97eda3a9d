// Package sqlite persists the ledger snapshot in SQLite, one row per
// transaction plus a single state row for the totals and budget.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pocketledger/internal/core"
	"pocketledger/internal/storage"
)

const timeLayout = time.RFC3339Nano

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ storage.SnapshotStore = (*Store)(nil)

// Open creates the database file if needed and applies migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (core.Snapshot, bool, error) {
	var snap core.Snapshot
	err := s.db.QueryRowContext(ctx, `
		SELECT total_income_cents, total_expenses_cents, balance_cents, monthly_budget_cents
		FROM ledger_state WHERE id = 1`).
		Scan(&snap.TotalIncome.Cents, &snap.TotalExpenses.Cents, &snap.Balance.Cents, &snap.MonthlyBudget.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Snapshot{}, false, nil
	}
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("read ledger state: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, amount_cents, type, category, description, created_at, updated_at
		FROM transactions ORDER BY position`)
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	snap.Transactions = []core.Transaction{}
	for rows.Next() {
		var (
			t         core.Transaction
			typ       string
			createdAt string
			updatedAt sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Amount.Cents, &typ, &t.Category, &t.Description, &createdAt, &updatedAt); err != nil {
			return core.Snapshot{}, false, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return core.Snapshot{}, false, fmt.Errorf("transaction %s: parse created_at: %w", t.ID, err)
		}
		if updatedAt.Valid {
			u, err := time.Parse(timeLayout, updatedAt.String)
			if err != nil {
				return core.Snapshot{}, false, fmt.Errorf("transaction %s: parse updated_at: %w", t.ID, err)
			}
			t.UpdatedAt = &u
		}
		snap.Transactions = append(snap.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return core.Snapshot{}, false, fmt.Errorf("iterate transactions: %w", err)
	}
	return snap, true, nil
}

// Save replaces every row in one SQL transaction.
func (s *Store) Save(ctx context.Context, snap core.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (position, id, title, amount_cents, type, category, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range snap.Transactions {
		var updatedAt sql.NullString
		if t.UpdatedAt != nil {
			updatedAt = sql.NullString{String: t.UpdatedAt.Format(timeLayout), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, i, t.ID, t.Title, t.Amount.Cents, string(t.Type), t.Category,
			t.Description, t.CreatedAt.Format(timeLayout), updatedAt); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_state (id, total_income_cents, total_expenses_cents, balance_cents, monthly_budget_cents, saved_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			total_income_cents = excluded.total_income_cents,
			total_expenses_cents = excluded.total_expenses_cents,
			balance_cents = excluded.balance_cents,
			monthly_budget_cents = excluded.monthly_budget_cents,
			saved_at = excluded.saved_at`,
		snap.TotalIncome.Cents, snap.TotalExpenses.Cents, snap.Balance.Cents, snap.MonthlyBudget.Cents,
		s.now().UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("write ledger state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}
