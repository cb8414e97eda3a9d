// Package storagetest is a conformance suite run against every
// storage.SnapshotStore implementation.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketledger/internal/core"
	"pocketledger/internal/storage"
)

// Fixture returns a consistent two-transaction snapshot.
func Fixture() core.Snapshot {
	created := time.Date(2026, 10, 14, 8, 30, 0, 0, time.UTC)
	updated := created.Add(2 * time.Hour)
	return core.Snapshot{
		Transactions: []core.Transaction{
			{ID: "b", Title: "Groceries", Amount: core.Cents(4250), Type: core.Expense, Category: "food", Description: "weekly", CreatedAt: created.Add(time.Hour), UpdatedAt: &updated},
			{ID: "a", Title: "Salary", Amount: core.Cents(300000), Type: core.Income, Category: "others", CreatedAt: created},
		},
		TotalIncome:   core.Cents(300000),
		TotalExpenses: core.Cents(4250),
		Balance:       core.Cents(295750),
		MonthlyBudget: core.Cents(100000),
	}
}

// Opener opens the store at one fixed location. Calling it again after
// Close reopens the same location.
type Opener func(t *testing.T) storage.SnapshotStore

// Run exercises the SnapshotStore contract. newLocation is called once per
// subtest and must return an opener bound to a fresh, empty location.
func Run(t *testing.T, newLocation func(t *testing.T) Opener) {
	ctx := context.Background()

	t.Run("empty store reports no snapshot", func(t *testing.T) {
		s := newLocation(t)(t)
		defer s.Close()

		_, ok, err := s.Load(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("save then load round trips", func(t *testing.T) {
		s := newLocation(t)(t)
		defer s.Close()

		want := Fixture()
		require.NoError(t, s.Save(ctx, want))

		got, ok, err := s.Load(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assertSnapshotEqual(t, want, got)
	})

	t.Run("save replaces previous snapshot", func(t *testing.T) {
		s := newLocation(t)(t)
		defer s.Close()

		require.NoError(t, s.Save(ctx, Fixture()))
		next := core.Snapshot{MonthlyBudget: core.Cents(5000)}
		require.NoError(t, s.Save(ctx, next))

		got, ok, err := s.Load(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Empty(t, got.Transactions)
		assert.Equal(t, core.Cents(5000), got.MonthlyBudget)
	})

	t.Run("inconsistent totals are stored verbatim", func(t *testing.T) {
		s := newLocation(t)(t)
		defer s.Close()

		drifted := Fixture()
		drifted.TotalExpenses = core.Cents(1)
		require.NoError(t, s.Save(ctx, drifted))

		got, _, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, core.Cents(1), got.TotalExpenses)
		assert.False(t, got.Consistent())
	})

	t.Run("snapshot survives reopen", func(t *testing.T) {
		open := newLocation(t)
		s := open(t)
		require.NoError(t, s.Save(ctx, Fixture()))
		require.NoError(t, s.Close())

		s2 := open(t)
		defer s2.Close()
		got, ok, err := s2.Load(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assertSnapshotEqual(t, Fixture(), got)
	})
}

func assertSnapshotEqual(t *testing.T, want, got core.Snapshot) {
	t.Helper()
	assert.Equal(t, want.Totals(), got.Totals())
	require.Len(t, got.Transactions, len(want.Transactions))
	for i := range want.Transactions {
		w, g := want.Transactions[i], got.Transactions[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Title, g.Title)
		assert.Equal(t, w.Amount, g.Amount)
		assert.Equal(t, w.Type, g.Type)
		assert.Equal(t, w.Category, g.Category)
		assert.Equal(t, w.Description, g.Description)
		assert.True(t, w.CreatedAt.Equal(g.CreatedAt), "createdAt %v != %v", w.CreatedAt, g.CreatedAt)
		if w.UpdatedAt == nil {
			assert.Nil(t, g.UpdatedAt)
		} else {
			require.NotNil(t, g.UpdatedAt)
			assert.True(t, w.UpdatedAt.Equal(*g.UpdatedAt))
		}
	}
}
