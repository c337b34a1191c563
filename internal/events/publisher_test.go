package events

import (
	"encoding/json"
	"testing"
	"time"
)

// TestNilPublisherSafe ensures a disabled publisher is a no-op everywhere.
func TestNilPublisherSafe(t *testing.T) {
	var p *Publisher
	p.Publish(TypeBuildStarted, "b1", nil)
	p.Close()
}

// TestConnectDisabled verifies an empty URL disables publishing.
func TestConnectDisabled(t *testing.T) {
	p, err := Connect("", "softice.builds")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil publisher when no URL configured")
	}
}

// TestEventEncoding pins the wire shape consumers depend on.
func TestEventEncoding(t *testing.T) {
	e := Event{
		Type:      TypeBuildCompleted,
		BuildID:   "0c9c5f2e",
		Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Detail:    map[string]string{"pages": "42"},
	}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != TypeBuildCompleted {
		t.Fatalf("unexpected type field: %v", decoded["type"])
	}
	if decoded["build_id"] != "0c9c5f2e" {
		t.Fatalf("unexpected build_id field: %v", decoded["build_id"])
	}
	detail, ok := decoded["detail"].(map[string]any)
	if !ok || detail["pages"] != "42" {
		t.Fatalf("unexpected detail: %v", decoded["detail"])
	}
}
