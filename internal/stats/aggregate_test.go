package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketledger/internal/core"
)

// Wednesday.
var now = time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)

func tx(id string, typ core.TransactionType, cents int64, category string, at time.Time) core.Transaction {
	return core.Transaction{ID: id, Title: id, Amount: core.Cents(cents), Type: typ, Category: category, CreatedAt: at}
}

func TestCategoryTotalsExcludesIncome(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.Expense, 1000, "food", now),
		tx("2", core.Expense, 500, "food", now),
		tx("3", core.Income, 9999, "food", now),
		tx("4", core.Expense, 200, "bills", now),
		tx("5", core.Income, 100, "others", now),
	}

	got := CategoryTotals(txs)
	assert.Equal(t, map[string]core.Money{
		"food":  core.Cents(1500),
		"bills": core.Cents(200),
	}, got)

	var sum core.Money
	for _, amt := range got {
		sum = sum.Add(amt)
	}
	_, expenses := core.Fold(txs)
	assert.Equal(t, expenses, sum, "category totals sum to total expenses")
}

func TestCategoryTotalsEmpty(t *testing.T) {
	assert.Empty(t, CategoryTotals(nil))
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name        string
		part, total int64
		want        int
	}{
		{"zero total", 0, 0, 0},
		{"part over zero total", 50, 0, 0},
		{"quarter", 50, 200, 25},
		{"third rounds down", 1, 3, 33},
		{"two thirds rounds up", 2, 3, 67},
		{"half rounds up", 1, 8, 13},
		{"whole", 7, 7, 100},
		{"over total clamps", 300, 200, 100},
		{"zero part", 0, 200, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(core.Cents(tt.part), core.Cents(tt.total)))
		})
	}
}

func TestTopCategory(t *testing.T) {
	_, _, ok := TopCategory(nil)
	assert.False(t, ok)

	id, amount, ok := TopCategory(map[string]core.Money{
		"food":      core.Cents(300),
		"transport": core.Cents(900),
		"bills":     core.Cents(100),
	})
	require.True(t, ok)
	assert.Equal(t, "transport", id)
	assert.Equal(t, core.Cents(900), amount)
}

func TestTopCategoryTieBreaksOnID(t *testing.T) {
	totals := map[string]core.Money{
		"shopping": core.Cents(500),
		"bills":    core.Cents(500),
		"food":     core.Cents(500),
		"health":   core.Cents(10),
	}
	for i := 0; i < 20; i++ {
		id, _, ok := TopCategory(totals)
		require.True(t, ok)
		assert.Equal(t, "bills", id)
	}
}

func TestWindowSumIsCalendarAligned(t *testing.T) {
	sunday := time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("today", core.Expense, 100, "food", now.Add(-time.Hour)),
		tx("sunday", core.Expense, 200, "food", sunday),
		tx("saturday", core.Expense, 400, "food", sunday.Add(-time.Second)),
		tx("month-start", core.Expense, 800, "food", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)),
		tx("last-month", core.Expense, 1600, "food", time.Date(2026, 9, 30, 23, 59, 0, 0, time.UTC)),
		tx("income", core.Income, 3200, "others", now.Add(-time.Hour)),
	}

	assert.Equal(t, core.Cents(300), WindowSum(txs, core.Expense, ThisWeek, now, time.Sunday))
	assert.Equal(t, core.Cents(100), WindowSum(txs, core.Expense, ThisWeek, now, time.Monday),
		"a monday week excludes the preceding sunday")
	assert.Equal(t, core.Cents(1500), WindowSum(txs, core.Expense, ThisMonth, now, time.Sunday))
	assert.Equal(t, core.Cents(100), WindowSum(txs, core.Expense, Today, now, time.Sunday))
	assert.Equal(t, core.Cents(3100), WindowSum(txs, core.Expense, AllTime, now, time.Sunday))
	assert.Equal(t, core.Cents(3200), WindowSum(txs, core.Income, ThisWeek, now, time.Sunday))
}

// Eight days ago and thirty-one days ago are excluded or included by the
// calendar, never by a rolling count.
func TestWindowSumIsNotRolling(t *testing.T) {
	firstOfMonth := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	lateLastMonth := time.Date(2026, 9, 29, 12, 0, 0, 0, time.UTC)
	monthNow := time.Date(2026, 10, 2, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("a", core.Expense, 100, "food", firstOfMonth),
		tx("b", core.Expense, 200, "food", lateLastMonth),
	}
	assert.Equal(t, core.Cents(100), WindowSum(txs, core.Expense, ThisMonth, monthNow, time.Sunday))

	// 2026-10-10 is a Saturday; the Sunday after it starts a new week.
	saturday := time.Date(2026, 10, 10, 23, 0, 0, 0, time.UTC)
	sundayNow := time.Date(2026, 10, 11, 1, 0, 0, 0, time.UTC)
	weekTxs := []core.Transaction{tx("c", core.Expense, 100, "food", saturday)}
	assert.Equal(t, core.Money{}, WindowSum(weekTxs, core.Expense, ThisWeek, sundayNow, time.Sunday))
}

func TestRelativeDateLabel(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		elapsed time.Duration
		want    string
	}{
		{0, "Today"},
		{23 * time.Hour, "Today"},
		{day, "Yesterday"},
		{2 * day, "2 days ago"},
		{6 * day, "6 days ago"},
		{7 * day, "1 weeks ago"},
		{13 * day, "1 weeks ago"},
		{29 * day, "4 weeks ago"},
		{30 * day, "1 months ago"},
		{59 * day, "1 months ago"},
		{364 * day, "12 months ago"},
		{365 * day, "1 years ago"},
		{800 * day, "2 years ago"},
		{-3 * day, "Today"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeDateLabel(now.Add(-tt.elapsed), now))
		})
	}
}

func TestParseWindow(t *testing.T) {
	for w, name := range windowNames {
		got, err := ParseWindow(name)
		require.NoError(t, err)
		assert.Equal(t, w, got)
		assert.Equal(t, name, w.String())
	}
	got, err := ParseWindow("")
	require.NoError(t, err)
	assert.Equal(t, AllTime, got)

	_, err = ParseWindow("fortnight")
	assert.Error(t, err)
}
