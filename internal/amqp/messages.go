package amqp

import (
	"encoding/json"
	"time"
)

// Event actions carried on the expense queue.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// ExpenseEvent notifies the export worker that a ledger row changed.
// It carries only the id and action; the worker reads the current row
// from storage.
type ExpenseEvent struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent builds an event stamped with the current time.
func NewExpenseEvent(id int64, action string) *ExpenseEvent {
	return &ExpenseEvent{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var e ExpenseEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
