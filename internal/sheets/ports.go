// Package sheets defines the spreadsheet mirror that ledger events are
// replayed into.
package sheets

import (
	"context"

	"pocketledger/internal/core"
)

// Header is the column layout of the mirrored transactions sheet.
var Header = []string{"ID", "Date", "Title", "Type", "Category", "Amount", "Description"}

// Mirror is an eventually consistent copy of the ledger kept outside the
// process. Every method must be idempotent so redelivered events are safe.
type Mirror interface {
	// Upsert writes tx, replacing an existing row with the same id.
	Upsert(ctx context.Context, tx core.Transaction) error
	// Delete removes the row for id. A missing row is not an error.
	Delete(ctx context.Context, id string) error
	// Clear removes every transaction row. The budget is kept.
	Clear(ctx context.Context) error
	SetBudget(ctx context.Context, budget core.Money) error
	// Replace rewrites the whole mirror from a snapshot.
	Replace(ctx context.Context, snap core.Snapshot) error
}

// Row renders tx in Header order.
func Row(tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.CreatedAt.Format("2006-01-02 15:04:05"),
		tx.Title,
		string(tx.Type),
		tx.Category,
		tx.Amount.Float(),
		tx.Description,
	}
}
