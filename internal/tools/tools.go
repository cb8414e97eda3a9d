// Package tools exposes the ledger to MCP clients.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"pocketledger/internal/category"
	"pocketledger/internal/core"
	ledgerhttp "pocketledger/internal/http"
	"pocketledger/internal/ledger"
	"pocketledger/internal/stats"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Ledger is the subset of the ledger service the tools call.
type Ledger interface {
	Add(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	Remove(ctx context.Context, id string) (ledger.Result, error)
	Update(ctx context.Context, id string, patch core.TransactionPatch) (ledger.Result, error)
	SetMonthlyBudget(ctx context.Context, budget core.Money) error
	ClearAll(ctx context.Context) error

	Get(id string) ledger.Result
	Transactions(q stats.Query) ([]core.Transaction, error)
	Totals() core.Totals
	Registry() *category.Registry
	Report() stats.Report
}

type handlers struct {
	svc Ledger
}

// RegisterTools adds all ledger tools to the server.
func RegisterTools(s *server.MCPServer, svc Ledger) {
	h := handlers{svc: svc}

	s.AddTool(mcp.NewTool("add_transaction",
		mcp.WithDescription("Record an income or expense. Returns the stored transaction."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Short title, at most 200 characters")),
		mcp.WithString("amount", mcp.Required(), mcp.Description("Positive amount such as 12.50 or 12,50")),
		mcp.WithString("type", mcp.Required(), mcp.Description("expense or income")),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category id, see list_categories")),
		mcp.WithString("description", mcp.Description("Optional free text")),
	), h.addTransaction)

	s.AddTool(mcp.NewTool("list_transactions",
		mcp.WithDescription("List transactions newest first, optionally filtered and sorted."),
		mcp.WithString("category", mcp.Description("Category id or all")),
		mcp.WithString("type", mcp.Description("expense, income or all")),
		mcp.WithString("range", mcp.Description("all, today, week, month or year")),
		mcp.WithString("search", mcp.Description("Case-insensitive text matched against title and description")),
		mcp.WithString("sort", mcp.Description("date, amount or category")),
		mcp.WithString("order", mcp.Description("asc or desc")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of transactions to return (default: 50)")),
	), h.listTransactions)

	s.AddTool(mcp.NewTool("get_transaction",
		mcp.WithDescription("Fetch one transaction by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Transaction id")),
	), h.getTransaction)

	s.AddTool(mcp.NewTool("update_transaction",
		mcp.WithDescription("Change fields of a transaction. Omitted fields keep their value."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Transaction id")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("amount", mcp.Description("New positive amount")),
		mcp.WithString("type", mcp.Description("expense or income")),
		mcp.WithString("category", mcp.Description("New category id")),
		mcp.WithString("description", mcp.Description("New description")),
	), h.updateTransaction)

	s.AddTool(mcp.NewTool("remove_transaction",
		mcp.WithDescription("Delete a transaction. Removing an unknown id changes nothing."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Transaction id")),
	), h.removeTransaction)

	s.AddTool(mcp.NewTool("set_budget",
		mcp.WithDescription("Set the monthly budget. Zero clears it."),
		mcp.WithString("amount", mcp.Required(), mcp.Description("Budget amount, zero or positive")),
	), h.setBudget)

	s.AddTool(mcp.NewTool("get_totals",
		mcp.WithDescription("Income, expenses, balance and monthly budget."),
	), h.getTotals)

	s.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Spending statistics: this week and month, top category and per-category breakdown."),
	), h.getStats)

	s.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("Known categories with their display names."),
	), h.listCategories)

	s.AddTool(mcp.NewTool("clear_ledger",
		mcp.WithDescription("Delete every transaction. The budget is kept."),
		mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true")),
	), h.clearLedger)
}

func (h handlers) addTransaction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title is required"), nil
	}
	amount, err := core.ParseAmount(mcp.ParseString(request, "amount", ""))
	if err != nil {
		return mcp.NewToolResultError("amount must be a positive number"), nil
	}
	typ, err := core.ParseTransactionType(mcp.ParseString(request, "type", ""))
	if err != nil {
		return mcp.NewToolResultError("type must be expense or income"), nil
	}
	in := core.TransactionInput{
		Title:       strings.TrimSpace(title),
		Amount:      amount,
		Type:        typ,
		Category:    strings.ToLower(strings.TrimSpace(mcp.ParseString(request, "category", ""))),
		Description: strings.TrimSpace(mcp.ParseString(request, "description", "")),
	}
	if err := in.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tx, err := h.svc.Add(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tx)
}

func (h handlers) listTransactions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	values := url.Values{}
	for _, key := range []string{"category", "type", "range", "search", "sort", "order"} {
		if v := mcp.ParseString(request, key, ""); v != "" {
			values.Set(key, v)
		}
	}
	q, err := ledgerhttp.ParseQuery(values)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	txs, err := h.svc.Transactions(q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	total := len(txs)
	if limit := mcp.ParseInt(request, "limit", 50); limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return jsonResult(map[string]any{"transactions": txs, "count": len(txs), "total": total})
}

func (h handlers) getTransaction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}
	res := h.svc.Get(id)
	if !res.Found {
		return mcp.NewToolResultError(fmt.Sprintf("transaction %s not found", id)), nil
	}
	return jsonResult(res.Transaction)
}

func (h handlers) updateTransaction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}
	args := request.GetArguments()
	var patch core.TransactionPatch
	if _, ok := args["title"]; ok {
		v := strings.TrimSpace(mcp.ParseString(request, "title", ""))
		patch.Title = &v
	}
	if _, ok := args["amount"]; ok {
		m, err := core.ParseAmount(mcp.ParseString(request, "amount", ""))
		if err != nil {
			return mcp.NewToolResultError("amount must be a positive number"), nil
		}
		patch.Amount = &m
	}
	if _, ok := args["type"]; ok {
		t, err := core.ParseTransactionType(mcp.ParseString(request, "type", ""))
		if err != nil {
			return mcp.NewToolResultError("type must be expense or income"), nil
		}
		patch.Type = &t
	}
	if _, ok := args["category"]; ok {
		v := strings.ToLower(strings.TrimSpace(mcp.ParseString(request, "category", "")))
		patch.Category = &v
	}
	if _, ok := args["description"]; ok {
		v := strings.TrimSpace(mcp.ParseString(request, "description", ""))
		patch.Description = &v
	}
	if err := patch.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := h.svc.Update(ctx, id, patch)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.Found {
		return mcp.NewToolResultError(fmt.Sprintf("transaction %s not found", id)), nil
	}
	return jsonResult(res.Transaction)
}

func (h handlers) removeTransaction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}
	res, err := h.svc.Remove(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.Found {
		return mcp.NewToolResultText(fmt.Sprintf("No transaction with id %s; nothing removed.", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed %q (%s).", res.Transaction.Title, core.FormatCurrency(res.Transaction.Amount))), nil
}

func (h handlers) setBudget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("amount")
	if err != nil {
		return mcp.NewToolResultError("amount is required"), nil
	}
	budget, err := core.ParseBudget(raw)
	if err != nil {
		return mcp.NewToolResultError("amount must be zero or a positive number"), nil
	}
	if err := h.svc.SetMonthlyBudget(ctx, budget); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(h.svc.Totals())
}

func (h handlers) getTotals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t := h.svc.Totals()
	return mcp.NewToolResultText(fmt.Sprintf(
		"Income: %s\nExpenses: %s\nBalance: %s\nMonthly budget: %s (%d%% used)",
		core.FormatCurrency(t.Income),
		core.FormatCurrency(t.Expenses),
		core.FormatCurrency(t.Balance),
		core.FormatCurrency(t.Budget),
		stats.BudgetUsage(t.Expenses, t.Budget),
	)), nil
}

func (h handlers) getStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.svc.Report())
}

func (h handlers) listCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	for _, c := range h.svc.Registry().All() {
		fmt.Fprintf(&b, "%s\t%s %s\n", c.ID, c.Icon, c.Name)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (h handlers) clearLedger(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !mcp.ParseBoolean(request, "confirm", false) {
		return mcp.NewToolResultError("set confirm to true to delete every transaction"), nil
	}
	if err := h.svc.ClearAll(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("All transactions deleted."), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
