package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

// MaxTitleLength bounds titles accepted from user input.
const MaxTitleLength = 200

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	// Transaction is a single recorded income or expense event.
	Transaction struct {
		ID          string          `json:"id"`
		Title       string          `json:"title"`
		Amount      Money           `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
	}

	// TransactionInput carries the caller-supplied fields of a new transaction.
	TransactionInput struct {
		Title       string          `json:"title"`
		Amount      Money           `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
	}

	// TransactionPatch is a shallow update; nil fields keep their prior value.
	TransactionPatch struct {
		Title       *string          `json:"title,omitempty"`
		Amount      *Money           `json:"amount,omitempty"`
		Type        *TransactionType `json:"type,omitempty"`
		Category    *string          `json:"category,omitempty"`
		Description *string          `json:"description,omitempty"`
	}

	// Totals is the read view of the ledger's running sums.
	Totals struct {
		Income   Money `json:"income"`
		Expenses Money `json:"expenses"`
		Balance  Money `json:"balance"`
		Budget   Money `json:"budget"`
	}

	// Snapshot is the persisted layout of the ledger.
	Snapshot struct {
		Transactions  []Transaction `json:"transactions"`
		TotalExpenses Money         `json:"totalExpenses"`
		TotalIncome   Money         `json:"totalIncome"`
		Balance       Money         `json:"balance"`
		MonthlyBudget Money         `json:"monthlyBudget"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyTitle    = errors.New("empty title")
	ErrTitleTooLong  = errors.New("title too long (max 200 characters)")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyCategory = errors.New("empty category")
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == Expense || t == Income
}

// ParseTransactionType accepts "expense" or "income" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

// Validate checks user input before it reaches the ledger. The ledger itself
// records whatever it is given.
func (in TransactionInput) Validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if in.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !in.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Validate checks only the fields present in the patch.
func (p TransactionPatch) Validate() error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return ErrEmptyTitle
		}
		if len(title) > MaxTitleLength {
			return ErrTitleTooLong
		}
	}
	if p.Amount != nil && p.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if p.Type != nil && !p.Type.Valid() {
		return ErrInvalidType
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Title == nil && p.Amount == nil && p.Type == nil && p.Category == nil && p.Description == nil
}

// Apply returns t with the patch's present fields replaced.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	return t
}

// Clone returns a copy that shares no pointers with t.
func (t Transaction) Clone() Transaction {
	if t.UpdatedAt != nil {
		u := *t.UpdatedAt
		t.UpdatedAt = &u
	}
	return t
}

// Fold recomputes the running sums from the transaction list.
func Fold(txs []Transaction) (income, expenses Money) {
	for _, t := range txs {
		switch t.Type {
		case Expense:
			expenses = expenses.Add(t.Amount)
		case Income:
			income = income.Add(t.Amount)
		}
	}
	return income, expenses
}

// Consistent reports whether the stored totals match a fold over the
// snapshot's transactions.
func (s Snapshot) Consistent() bool {
	income, expenses := Fold(s.Transactions)
	return s.TotalIncome == income &&
		s.TotalExpenses == expenses &&
		s.Balance == income.Sub(expenses)
}

// Recomputed returns a copy of s whose totals are derived from its
// transactions. The budget is carried over untouched.
func (s Snapshot) Recomputed() Snapshot {
	income, expenses := Fold(s.Transactions)
	s.TotalIncome = income
	s.TotalExpenses = expenses
	s.Balance = income.Sub(expenses)
	return s
}

// Totals returns the read view of the snapshot's sums.
func (s Snapshot) Totals() Totals {
	return Totals{
		Income:   s.TotalIncome,
		Expenses: s.TotalExpenses,
		Balance:  s.Balance,
		Budget:   s.MonthlyBudget,
	}
}
