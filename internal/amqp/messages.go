package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pocketledger/internal/core"
)

// EventKind names a ledger transition.
type EventKind string

const (
	EventTransactionAdded   EventKind = "transaction.added"
	EventTransactionUpdated EventKind = "transaction.updated"
	EventTransactionRemoved EventKind = "transaction.removed"
	EventLedgerCleared      EventKind = "ledger.cleared"
	EventBudgetSet          EventKind = "budget.set"
	EventLedgerLoaded       EventKind = "ledger.loaded"
)

var ErrInvalidEvent = errors.New("invalid ledger event")

// LedgerEvent describes one committed ledger transition. Version is the
// ledger version after the transition. Versions restart with the process, so
// they order events within one run only.
type LedgerEvent struct {
	Kind          EventKind         `json:"kind"`
	Transaction   *core.Transaction `json:"transaction,omitempty"`
	TransactionID string            `json:"transactionId,omitempty"`
	Budget        *core.Money       `json:"budget,omitempty"`
	Snapshot      *core.Snapshot    `json:"snapshot,omitempty"`
	Version       uint64            `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewTransactionEvent builds an added, updated or removed event.
func NewTransactionEvent(kind EventKind, tx core.Transaction, version uint64) LedgerEvent {
	t := tx.Clone()
	return LedgerEvent{
		Kind:          kind,
		Transaction:   &t,
		TransactionID: tx.ID,
		Version:       version,
		Timestamp:     time.Now(),
	}
}

func NewBudgetEvent(budget core.Money, version uint64) LedgerEvent {
	return LedgerEvent{Kind: EventBudgetSet, Budget: &budget, Version: version, Timestamp: time.Now()}
}

func NewClearedEvent(version uint64) LedgerEvent {
	return LedgerEvent{Kind: EventLedgerCleared, Version: version, Timestamp: time.Now()}
}

// NewLoadedEvent carries the whole snapshot so mirrors can rebuild from it.
func NewLoadedEvent(snap core.Snapshot, version uint64) LedgerEvent {
	return LedgerEvent{Kind: EventLedgerLoaded, Snapshot: &snap, Version: version, Timestamp: time.Now()}
}

// Validate checks that the payload required by Kind is present.
func (e LedgerEvent) Validate() error {
	switch e.Kind {
	case EventTransactionAdded, EventTransactionUpdated:
		if e.Transaction == nil || e.Transaction.ID == "" {
			return fmt.Errorf("%w: %s without transaction", ErrInvalidEvent, e.Kind)
		}
	case EventTransactionRemoved:
		if e.TransactionID == "" {
			return fmt.Errorf("%w: %s without transaction id", ErrInvalidEvent, e.Kind)
		}
	case EventBudgetSet:
		if e.Budget == nil {
			return fmt.Errorf("%w: %s without budget", ErrInvalidEvent, e.Kind)
		}
	case EventLedgerLoaded:
		if e.Snapshot == nil {
			return fmt.Errorf("%w: %s without snapshot", ErrInvalidEvent, e.Kind)
		}
	case EventLedgerCleared:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	return nil
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and validates an event body.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return LedgerEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := ev.Validate(); err != nil {
		return LedgerEvent{}, err
	}
	return ev, nil
}
