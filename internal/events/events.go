// Package events announces committed ledger changes to other parts of the
// travel app. Publishing is best-effort: it happens after the stores commit
// and a failed publish never rolls a mutation back.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Type names a ledger change. It doubles as the AMQP routing key.
type Type string

const (
	ExpenseRecorded     Type = "expense.recorded"
	ExpenseUpdated      Type = "expense.updated"
	ExpenseDeleted      Type = "expense.deleted"
	BudgetCreated       Type = "budget.created"
	BudgetUpdated       Type = "budget.updated"
	CategoryAdded       Type = "category.added"
	CategoryReallocated Type = "category.reallocated"
	CategoryDeleted     Type = "category.deleted"
	LedgerReconciled    Type = "ledger.reconciled"
)

// Event is the message body sent for every committed change.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	BudgetID   string    `json:"budget_id"`
	ResourceID string    `json:"resource_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ToJSON encodes the event for the wire.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event received from the wire.
func FromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Publisher delivers ledger events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Noop drops every event. It is used when no broker is configured.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) error { return nil }
