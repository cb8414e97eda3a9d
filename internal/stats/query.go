package stats

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pocketledger/internal/core"
)

// AllCategories is the category filter value that matches everything.
const AllCategories = "all"

type (
	SortField string
	SortOrder string
)

const (
	SortByDate     SortField = "date"
	SortByAmount   SortField = "amount"
	SortByCategory SortField = "category"

	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

var ErrInvalidQuery = errors.New("invalid query")

// Query is the filter, search and sort state applied to a transaction list
// before display. The zero value returns every transaction newest first.
type Query struct {
	Category string
	Type     core.TransactionType
	Range    Window
	Search   string
	SortBy   SortField
	Order    SortOrder
}

// Validate rejects unknown sort fields, orders, types and ranges.
func (q Query) Validate() error {
	switch q.SortBy {
	case "", SortByDate, SortByAmount, SortByCategory:
	default:
		return fmt.Errorf("%w: sort field %q", ErrInvalidQuery, q.SortBy)
	}
	switch q.Order {
	case "", Asc, Desc:
	default:
		return fmt.Errorf("%w: sort order %q", ErrInvalidQuery, q.Order)
	}
	if q.Type != "" && !q.Type.Valid() {
		return fmt.Errorf("%w: type %q", ErrInvalidQuery, q.Type)
	}
	if _, ok := windowNames[q.Range]; !ok {
		return fmt.Errorf("%w: range %d", ErrInvalidQuery, int(q.Range))
	}
	return nil
}

// Apply filters and sorts a copy of txs. Search matches title and
// description case-insensitively. Equal sort keys keep input order.
func (q Query) Apply(txs []core.Transaction, now time.Time, weekStart core.WeekStart) []core.Transaction {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if q.Category != "" && q.Category != AllCategories && t.Category != q.Category {
			continue
		}
		if q.Type != "" && t.Type != q.Type {
			continue
		}
		if !q.Range.Contains(t.CreatedAt, now, weekStart) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t.Clone())
	}

	less := q.less()
	desc := q.Order != Asc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func (q Query) less() func(a, b core.Transaction) bool {
	switch q.SortBy {
	case SortByAmount:
		return func(a, b core.Transaction) bool { return a.Amount.Cents < b.Amount.Cents }
	case SortByCategory:
		return func(a, b core.Transaction) bool { return a.Category < b.Category }
	default:
		return func(a, b core.Transaction) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}
