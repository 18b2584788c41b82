package event

import "testing"

func TestNew(t *testing.T) {
	evt := New("counter.inc_by", 10, "test")

	if evt.Type != "counter.inc_by" {
		t.Errorf("Type = %q", evt.Type)
	}
	if evt.Payload != 10 {
		t.Errorf("Payload = %v, want 10", evt.Payload)
	}
	if evt.Metadata.ID == "" {
		t.Error("expected an ID")
	}
	if evt.Metadata.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
	if evt.Metadata.Source != "test" {
		t.Errorf("Source = %q, want test", evt.Metadata.Source)
	}
	if evt.Metadata.Seq != 0 {
		t.Errorf("Seq = %d, want 0 before acceptance", evt.Metadata.Seq)
	}
}

func TestNew_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := New("x", nil, "").Metadata.ID
		if seen[id] {
			t.Fatalf("duplicate ID %s", id)
		}
		seen[id] = true
	}
}

func TestEvent_WithCopies(t *testing.T) {
	orig := New("x", nil, "a")

	moved := orig.WithSource("b").WithSeq(7)
	if orig.Metadata.Source != "a" || orig.Metadata.Seq != 0 {
		t.Error("With* methods must not modify the receiver")
	}
	if moved.Metadata.Source != "b" || moved.Metadata.Seq != 7 {
		t.Errorf("got source %q seq %d", moved.Metadata.Source, moved.Metadata.Seq)
	}
}

func TestEvent_IsZero(t *testing.T) {
	if !(Event{}).IsZero() {
		t.Error("zero Event should report IsZero")
	}
	if New("x", nil, "").IsZero() {
		t.Error("created event should not report IsZero")
	}
}
