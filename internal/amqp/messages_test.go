package amqp

import (
	"testing"
	"time"
)

func TestExpenseEventJSON(t *testing.T) {
	event := NewExpenseEvent(42, ActionUpsert)
	if event.Timestamp.IsZero() {
		t.Fatal("event should be timestamped")
	}

	body, err := event.ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	got, err := ExpenseEventFromJSON(body)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != 42 || got.Action != ActionUpsert {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if !got.Timestamp.Truncate(time.Millisecond).Equal(event.Timestamp.Truncate(time.Millisecond)) {
		t.Fatalf("timestamp mismatch: %v vs %v", got.Timestamp, event.Timestamp)
	}
}

func TestExpenseEventFromJSONRejectsGarbage(t *testing.T) {
	if _, err := ExpenseEventFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
