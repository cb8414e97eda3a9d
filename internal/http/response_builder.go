package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pocketledger/internal/category"
	"pocketledger/internal/core"
	"pocketledger/internal/ledger"
	"pocketledger/internal/stats"
)

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// transactionView adds display fields to a transaction.
type transactionView struct {
	core.Transaction
	AmountFormatted string `json:"amountFormatted"`
	DateLabel       string `json:"dateLabel"`
	CategoryName    string `json:"categoryName"`
	CategoryIcon    string `json:"categoryIcon"`
	CategoryColor   string `json:"categoryColor"`
}

func newTransactionView(tx core.Transaction, reg *category.Registry, now time.Time) transactionView {
	c := reg.ByID(tx.Category)
	return transactionView{
		Transaction:     tx,
		AmountFormatted: core.FormatCurrency(tx.Amount),
		DateLabel:       stats.RelativeDateLabel(tx.CreatedAt, now),
		CategoryName:    c.Name,
		CategoryIcon:    c.Icon,
		CategoryColor:   c.Color,
	}
}

func newTransactionViews(txs []core.Transaction, reg *category.Registry, now time.Time) []transactionView {
	out := make([]transactionView, len(txs))
	for i, tx := range txs {
		out[i] = newTransactionView(tx, reg, now)
	}
	return out
}

type listResponse struct {
	Transactions []transactionView `json:"transactions"`
	Count        int               `json:"count"`
	Net          core.Money        `json:"net"`
}

type dayGroupView struct {
	Label        string            `json:"label"`
	Transactions []transactionView `json:"transactions"`
}

type categoryGroupView struct {
	Category     category.Category `json:"category"`
	Transactions []transactionView `json:"transactions"`
}

type totalsView struct {
	core.Totals
	IncomeFormatted   string `json:"incomeFormatted"`
	ExpensesFormatted string `json:"expensesFormatted"`
	BalanceFormatted  string `json:"balanceFormatted"`
	BudgetUsed        int    `json:"budgetUsed"`
}

func newTotalsView(t core.Totals) totalsView {
	return totalsView{
		Totals:            t,
		IncomeFormatted:   core.FormatCurrency(t.Income),
		ExpensesFormatted: core.FormatCurrency(t.Expenses),
		BalanceFormatted:  core.FormatCurrency(t.Balance),
		BudgetUsed:        stats.BudgetUsage(t.Expenses, t.Budget),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}

// writeServiceError maps validation errors to 400, a rejected snapshot to
// 422 and everything else to 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrTitleTooLong),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, stats.ErrInvalidQuery):
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
	case errors.Is(err, ledger.ErrSnapshotMismatch):
		writeJSONError(w, http.StatusUnprocessableEntity, "snapshot_mismatch", err.Error())
	case errors.Is(err, errBadBody):
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Internal error")
	}
}
