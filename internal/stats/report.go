package stats

import (
	"time"

	"pocketledger/internal/category"
	"pocketledger/internal/core"
)

// DefaultBreakdownLimit is the number of categories shown in a report.
const DefaultBreakdownLimit = 5

// ReportParams configures BuildReport.
type ReportParams struct {
	Now            time.Time
	WeekStart      core.WeekStart
	BreakdownLimit int
	Registry       *category.Registry
}

// Report bundles every figure the statistics view shows for one snapshot.
type Report struct {
	Totals            core.Totals     `json:"totals"`
	ThisWeekExpenses  core.Money      `json:"thisWeekExpenses"`
	ThisMonthExpenses core.Money      `json:"thisMonthExpenses"`
	BudgetUsed        int             `json:"budgetUsed"`
	TopCategory       *CategoryShare  `json:"topCategory,omitempty"`
	Breakdown         []CategoryShare `json:"breakdown"`
	Counts            Counts          `json:"counts"`
	GeneratedAt       time.Time       `json:"generatedAt"`
}

// BuildReport aggregates snap as seen at p.Now.
func BuildReport(snap core.Snapshot, p ReportParams) Report {
	reg := p.Registry
	if reg == nil {
		reg = category.Default()
	}
	limit := p.BreakdownLimit
	if limit == 0 {
		limit = DefaultBreakdownLimit
	}

	totals := CategoryTotals(snap.Transactions)
	r := Report{
		Totals:            snap.Totals(),
		ThisWeekExpenses:  WindowSum(snap.Transactions, core.Expense, ThisWeek, p.Now, p.WeekStart),
		ThisMonthExpenses: WindowSum(snap.Transactions, core.Expense, ThisMonth, p.Now, p.WeekStart),
		BudgetUsed:        BudgetUsage(snap.TotalExpenses, snap.MonthlyBudget),
		Breakdown:         Breakdown(totals, reg, limit),
		Counts:            CountByType(snap.Transactions),
		GeneratedAt:       p.Now,
	}
	if id, amount, ok := TopCategory(totals); ok {
		c := reg.ByID(id)
		r.TopCategory = &CategoryShare{
			ID:         id,
			Name:       c.Name,
			Icon:       c.Icon,
			Color:      c.Color,
			Amount:     amount,
			Percentage: Percentage(amount, sumTotals(totals)),
		}
	}
	return r
}
