// Package memory is an in-process sheets.Mirror used in development and
// tests.
package memory

import (
	"context"
	"sync"

	"pocketledger/internal/core"
	"pocketledger/internal/sheets"
)

type Mirror struct {
	mu     sync.Mutex
	order  []string
	rows   map[string]core.Transaction
	budget core.Money
	ops    int
}

var _ sheets.Mirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: make(map[string]core.Transaction)}
}

func (m *Mirror) Upsert(_ context.Context, tx core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	if _, ok := m.rows[tx.ID]; !ok {
		m.order = append(m.order, tx.ID)
	}
	m.rows[tx.ID] = tx.Clone()
	return nil
}

func (m *Mirror) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	if _, ok := m.rows[id]; !ok {
		return nil
	}
	delete(m.rows, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Mirror) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.order = nil
	m.rows = make(map[string]core.Transaction)
	return nil
}

func (m *Mirror) SetBudget(_ context.Context, budget core.Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.budget = budget
	return nil
}

// Replace stores the snapshot's transactions oldest first, matching the
// append order a live mirror would have built.
func (m *Mirror) Replace(_ context.Context, snap core.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	m.order = nil
	m.rows = make(map[string]core.Transaction, len(snap.Transactions))
	for i := len(snap.Transactions) - 1; i >= 0; i-- {
		tx := snap.Transactions[i]
		if _, ok := m.rows[tx.ID]; !ok {
			m.order = append(m.order, tx.ID)
		}
		m.rows[tx.ID] = tx.Clone()
	}
	m.budget = snap.MonthlyBudget
	return nil
}

// Rows returns the mirrored transactions in row order.
func (m *Mirror) Rows() []core.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Transaction, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.rows[id].Clone())
	}
	return out
}

func (m *Mirror) Budget() core.Money {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.budget
}

// Ops counts calls made against the mirror.
func (m *Mirror) Ops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ops
}
