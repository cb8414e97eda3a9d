// Package stats holds the pure aggregation functions computed over a
// transaction collection: per-category totals, percentages, top category,
// calendar window sums and relative date labels.
//
// Nothing here mutates its input or keeps state. Callers pass a snapshot
// taken from the ledger so aggregation can run concurrently with writes.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pocketledger/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Window is a calendar-aligned time range relative to now.
type Window int

const (
	AllTime Window = iota
	Today
	ThisWeek
	ThisMonth
	ThisYear
)

var windowNames = map[Window]string{
	AllTime:   "all",
	Today:     "today",
	ThisWeek:  "week",
	ThisMonth: "month",
	ThisYear:  "year",
}

func (w Window) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return fmt.Sprintf("Window(%d)", int(w))
}

// ParseWindow maps "all", "today", "week", "month" or "year" to a Window.
// The empty string selects AllTime.
func ParseWindow(s string) (Window, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return AllTime, nil
	}
	for w, name := range windowNames {
		if s == name {
			return w, nil
		}
	}
	return AllTime, fmt.Errorf("invalid date range %q: must be one of all, today, week, month, year", s)
}

// Contains reports whether t falls inside the window as seen at now.
func (w Window) Contains(t, now time.Time, weekStart core.WeekStart) bool {
	switch w {
	case AllTime:
		return true
	case Today:
		return core.IsToday(t, now)
	case ThisWeek:
		return core.IsThisWeek(t, now, weekStart)
	case ThisMonth:
		return core.IsThisMonth(t, now)
	case ThisYear:
		return core.IsThisYear(t, now)
	default:
		return false
	}
}

// CategoryTotals sums expense amounts per category id. Income is excluded.
// Every key present has at least one contributing transaction.
func CategoryTotals(txs []core.Transaction) map[string]core.Money {
	totals := make(map[string]core.Money)
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		totals[t.Category] = totals[t.Category].Add(t.Amount)
	}
	return totals
}

// Percentage returns part/total*100 rounded half-up to an integer and
// clamped to [0,100]. A zero (or negative) total yields 0 rather than a
// division error; this is a policy choice, not an identity.
func Percentage(part, total core.Money) int {
	if total.Cents <= 0 || part.Cents <= 0 {
		return 0
	}
	p := decimal.NewFromInt(part.Cents).Mul(hundred).DivRound(decimal.NewFromInt(total.Cents), 0)
	if p.GreaterThan(hundred) {
		return 100
	}
	return int(p.IntPart())
}

// TopCategory returns the category with the largest total. Ties go to the
// lexicographically smallest id. ok is false when totals is empty.
func TopCategory(totals map[string]core.Money) (id string, amount core.Money, ok bool) {
	for cid, amt := range totals {
		if !ok || amt.Cents > amount.Cents || (amt.Cents == amount.Cents && cid < id) {
			id, amount, ok = cid, amt, true
		}
	}
	return id, amount, ok
}

// WindowSum sums the amounts of transactions of type typ whose createdAt
// falls in window w at now.
func WindowSum(txs []core.Transaction, typ core.TransactionType, w Window, now time.Time, weekStart core.WeekStart) core.Money {
	var sum core.Money
	for _, t := range txs {
		if t.Type == typ && w.Contains(t.CreatedAt, now, weekStart) {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

// RelativeDateLabel coarsens the whole days elapsed between ts and now into
// a label. Thresholds floor, never round: 7 days is "1 weeks ago", 29 is
// "4 weeks ago", 30 is "1 months ago". Months are 30-day blocks and years
// 365-day blocks. Timestamps in the future read as "Today".
func RelativeDateLabel(ts, now time.Time) string {
	days := int(now.Sub(ts) / (24 * time.Hour))
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return fmt.Sprintf("%d weeks ago", days/7)
	case days < 365:
		return fmt.Sprintf("%d months ago", days/30)
	default:
		return fmt.Sprintf("%d years ago", days/365)
	}
}

// sortedIDs returns the ids of totals ordered by amount descending, then id.
func sortedIDs(totals map[string]core.Money) []string {
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := totals[ids[i]], totals[ids[j]]
		if a.Cents != b.Cents {
			return a.Cents > b.Cents
		}
		return ids[i] < ids[j]
	})
	return ids
}
