package stats

import (
	"time"

	"pocketledger/internal/category"
	"pocketledger/internal/core"
)

// CategoryShare is one row of the per-category spending breakdown.
type CategoryShare struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Icon       string     `json:"icon"`
	Color      string     `json:"color"`
	Amount     core.Money `json:"amount"`
	Percentage int        `json:"percentage"`
}

// Breakdown joins category totals with the registry and orders them by
// amount descending (ties by id). Percentages are of the sum of all totals.
// A limit <= 0 keeps every category.
//
// Unknown ids keep their own id but borrow the fallback's display fields.
func Breakdown(totals map[string]core.Money, reg *category.Registry, limit int) []CategoryShare {
	sum := sumTotals(totals)
	ids := sortedIDs(totals)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]CategoryShare, 0, len(ids))
	for _, id := range ids {
		c := reg.ByID(id)
		out = append(out, CategoryShare{
			ID:         id,
			Name:       c.Name,
			Icon:       c.Icon,
			Color:      c.Color,
			Amount:     totals[id],
			Percentage: Percentage(totals[id], sum),
		})
	}
	return out
}

// sumTotals is the denominator of every category percentage, so shares stay
// consistent even when stored totals drift from the transactions.
func sumTotals(totals map[string]core.Money) core.Money {
	var sum core.Money
	for _, amt := range totals {
		sum = sum.Add(amt)
	}
	return sum
}

// BudgetUsage returns how much of budget the expenses have consumed, as a
// percentage capped at 100. A zero budget reads as 0% used.
func BudgetUsage(expenses, budget core.Money) int {
	return Percentage(expenses, budget)
}

// Counts tallies transactions by type.
type Counts struct {
	Total    int `json:"total"`
	Expenses int `json:"expenses"`
	Income   int `json:"income"`
}

func CountByType(txs []core.Transaction) Counts {
	var c Counts
	for _, t := range txs {
		c.Total++
		switch t.Type {
		case core.Expense:
			c.Expenses++
		case core.Income:
			c.Income++
		}
	}
	return c
}

// DayGroup holds the transactions recorded on one calendar day.
type DayGroup struct {
	Label        string             `json:"label"`
	Day          time.Time          `json:"day"`
	Transactions []core.Transaction `json:"transactions"`
}

// GroupByDate buckets transactions by calendar day in loc, keeping buckets
// in order of first appearance and transactions in input order. A nil loc
// uses each timestamp's own location.
func GroupByDate(txs []core.Transaction, loc *time.Location) []DayGroup {
	index := make(map[time.Time]int)
	var groups []DayGroup
	for _, t := range txs {
		ts := t.CreatedAt
		if loc != nil {
			ts = ts.In(loc)
		}
		day := core.StartOfDay(ts)
		i, ok := index[day]
		if !ok {
			i = len(groups)
			index[day] = i
			groups = append(groups, DayGroup{Label: core.FormatDate(day), Day: day})
		}
		groups[i].Transactions = append(groups[i].Transactions, t)
	}
	return groups
}

// CategoryGroup holds the transactions filed under one category id.
type CategoryGroup struct {
	Category     string             `json:"category"`
	Transactions []core.Transaction `json:"transactions"`
}

// GroupByCategory buckets transactions by category id in order of first
// appearance. Both types are included.
func GroupByCategory(txs []core.Transaction) []CategoryGroup {
	index := make(map[string]int)
	var groups []CategoryGroup
	for _, t := range txs {
		i, ok := index[t.Category]
		if !ok {
			i = len(groups)
			index[t.Category] = i
			groups = append(groups, CategoryGroup{Category: t.Category})
		}
		groups[i].Transactions = append(groups[i].Transactions, t)
	}
	return groups
}
