// internal/types/ids_test.go
package types

import (
	"testing"
)

func TestNewEventID(t *testing.T) {
	id := NewEventID()
	if id == "" {
		t.Error("expected non-empty EventID")
	}
	if len(string(id)) != 36 {
		t.Errorf("expected UUID format, got %s", id)
	}
}

func TestNewEventIDUnique(t *testing.T) {
	seen := make(map[EventID]bool)
	for i := 0; i < 100; i++ {
		id := NewEventID()
		if seen[id] {
			t.Fatalf("duplicate event id %s", id)
		}
		seen[id] = true
	}
}

func TestNewRequestID(t *testing.T) {
	if NewRequestID() == NewRequestID() {
		t.Error("expected distinct request ids")
	}
}
