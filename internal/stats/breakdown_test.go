package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketledger/internal/category"
	"pocketledger/internal/core"
)

func TestBreakdown(t *testing.T) {
	totals := map[string]core.Money{
		"food":     core.Cents(5000),
		"bills":    core.Cents(3000),
		"health":   core.Cents(1000),
		"mystery":  core.Cents(1000),
		"shopping": core.Cents(0),
	}

	got := Breakdown(totals, category.Default(), 3)
	require.Len(t, got, 3)

	assert.Equal(t, "food", got[0].ID)
	assert.Equal(t, "Food & Dining", got[0].Name)
	assert.Equal(t, 50, got[0].Percentage)
	assert.Equal(t, "bills", got[1].ID)
	assert.Equal(t, 30, got[1].Percentage)
	assert.Equal(t, "health", got[2].ID, "ties are ordered by id")

	all := Breakdown(totals, category.Default(), 0)
	require.Len(t, all, 5)
	assert.Equal(t, "mystery", all[3].ID)
	assert.Equal(t, "Others", all[3].Name, "unknown ids borrow the fallback's display fields")
}

func TestBreakdownEmpty(t *testing.T) {
	assert.Empty(t, Breakdown(nil, category.Default(), 5))
}

func TestBudgetUsage(t *testing.T) {
	assert.Equal(t, 0, BudgetUsage(core.Cents(5000), core.Money{}))
	assert.Equal(t, 40, BudgetUsage(core.Cents(4000), core.Cents(10000)))
	assert.Equal(t, 100, BudgetUsage(core.Cents(11000), core.Cents(10000)))
}

func TestCountByType(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.Expense, 1, "food", now),
		tx("2", core.Expense, 1, "food", now),
		tx("3", core.Income, 1, "others", now),
	}
	assert.Equal(t, Counts{Total: 3, Expenses: 2, Income: 1}, CountByType(txs))
}

func TestGroupByDate(t *testing.T) {
	d1 := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 10, 13, 22, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("a", core.Expense, 1, "food", d1.Add(time.Hour)),
		tx("b", core.Expense, 1, "food", d1),
		tx("c", core.Income, 1, "others", d2),
	}

	groups := GroupByDate(txs, time.UTC)
	require.Len(t, groups, 2)
	assert.Equal(t, "Oct 14, 2026", groups[0].Label)
	assert.Len(t, groups[0].Transactions, 2)
	assert.Equal(t, "a", groups[0].Transactions[0].ID)
	assert.Equal(t, "Oct 13, 2026", groups[1].Label)

	// 22:00 UTC on the 13th is already the 14th at UTC+3.
	plus3 := time.FixedZone("UTC+3", 3*60*60)
	shifted := GroupByDate(txs, plus3)
	require.Len(t, shifted, 1)
	assert.Len(t, shifted[0].Transactions, 3)
}

func TestGroupByCategory(t *testing.T) {
	txs := []core.Transaction{
		tx("a", core.Expense, 1, "food", now),
		tx("b", core.Expense, 1, "bills", now),
		tx("c", core.Income, 1, "food", now),
	}
	groups := GroupByCategory(txs)
	require.Len(t, groups, 2)
	assert.Equal(t, "food", groups[0].Category)
	assert.Len(t, groups[0].Transactions, 2)
	assert.Equal(t, "bills", groups[1].Category)
}

func TestBuildReport(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.Expense, 4000, "food", now.Add(-time.Hour)),
		tx("2", core.Expense, 1000, "bills", now.AddDate(0, 0, -20)),
		tx("3", core.Income, 10000, "others", now.Add(-2*time.Hour)),
	}
	snap := core.Snapshot{Transactions: txs, MonthlyBudget: core.Cents(10000)}.Recomputed()

	r := BuildReport(snap, ReportParams{Now: now, WeekStart: time.Sunday})

	assert.Equal(t, snap.Totals(), r.Totals)
	assert.Equal(t, core.Cents(4000), r.ThisWeekExpenses)
	assert.Equal(t, core.Cents(4000), r.ThisMonthExpenses)
	assert.Equal(t, 50, r.BudgetUsed)
	require.NotNil(t, r.TopCategory)
	assert.Equal(t, "food", r.TopCategory.ID)
	assert.Equal(t, 80, r.TopCategory.Percentage)
	assert.Len(t, r.Breakdown, 2)
	assert.Equal(t, Counts{Total: 3, Expenses: 2, Income: 1}, r.Counts)
	assert.Equal(t, now, r.GeneratedAt)
}

func TestBuildReportDriftedTotalsShareDenominator(t *testing.T) {
	snap := core.Snapshot{
		Transactions: []core.Transaction{
			tx("1", core.Expense, 3000, "food", now.Add(-time.Hour)),
			tx("2", core.Expense, 1000, "bills", now.Add(-time.Hour)),
		},
		TotalExpenses: core.Cents(8000),
	}

	r := BuildReport(snap, ReportParams{Now: now, WeekStart: time.Sunday})

	require.NotNil(t, r.TopCategory)
	require.NotEmpty(t, r.Breakdown)
	assert.Equal(t, 75, r.TopCategory.Percentage)
	assert.Equal(t, r.Breakdown[0].Percentage, r.TopCategory.Percentage)
}

func TestBuildReportEmpty(t *testing.T) {
	r := BuildReport(core.Snapshot{}, ReportParams{Now: now})
	assert.Nil(t, r.TopCategory)
	assert.Empty(t, r.Breakdown)
	assert.Equal(t, 0, r.BudgetUsed)
}
