package handler

import (
	"errors"
	"testing"

	"github.com/dshills/flux/internal/event"
	"github.com/dshills/flux/internal/state"
)

func incBy(s state.Snapshot, delta int) (state.Snapshot, error) {
	if delta == 0 {
		delta = 1
	}
	count, _ := s.Lookup(state.P("count"))
	return s.Set(state.P("count"), count.Int()+int64(delta))
}

func count(t *testing.T, s state.Snapshot) float64 {
	t.Helper()
	n, ok := s.Get(state.P("count"), nil).(float64)
	if !ok {
		t.Fatalf("count missing in %s", s.Raw())
	}
	return n
}

func TestRegistry_UnregisteredIsIdentity(t *testing.T) {
	r := NewRegistry()
	s := state.MustParse(`{"count":5}`)

	for _, typ := range []event.Type{"unknown", "", "inc_by"} {
		next, err := r.Apply(s, event.New(typ, 42, "test"))
		if err != nil {
			t.Fatalf("Apply(%q) failed: %v", typ, err)
		}
		if !next.Equal(s) {
			t.Errorf("Apply(%q) changed state to %s", typ, next.Raw())
		}
	}

	if _, ok := r.Lookup("unknown"); ok {
		t.Error("Lookup should report unregistered types")
	}
}

func TestRegistry_SetAndApply(t *testing.T) {
	r := NewRegistry()
	r.Set("inc_by", Typed(incBy))

	s := state.MustParse(`{"count":5}`)

	s, err := r.Apply(s, event.New("inc_by", nil, "test"))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := count(t, s); got != 6 {
		t.Errorf("count = %v, want 6", got)
	}

	s, err = r.Apply(s, event.New("inc_by", 10, "test"))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := count(t, s); got != 16 {
		t.Errorf("count = %v, want 16", got)
	}
}

func TestRegistry_SetNilRegistersIdentity(t *testing.T) {
	r := NewRegistry()
	fn := r.Set("noop", nil)
	if fn == nil {
		t.Fatal("Set(nil) should return the normalized handler")
	}

	s := state.MustParse(`{"a":1}`)
	next, err := r.Apply(s, event.New("noop", nil, "test"))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !next.Equal(s) {
		t.Errorf("identity handler changed state to %s", next.Raw())
	}
	if _, ok := r.Lookup("noop"); !ok {
		t.Error("Set(nil) should still register the type")
	}
}

func TestRegistry_LastWriteWins(t *testing.T) {
	r := NewRegistry()
	set := func(v int) Func {
		return func(s state.Snapshot, _ event.Event) (state.Snapshot, error) {
			return s.Set(state.P("v"), v)
		}
	}

	r.Set("x", set(1))
	s, _ := r.Apply(state.Empty(), event.New("x", nil, "test"))
	r.Set("x", set(2))

	if got := s.Get(state.P("v"), nil); got != float64(1) {
		t.Errorf("earlier result changed: v = %v", got)
	}

	s, _ = r.Apply(s, event.New("x", nil, "test"))
	if got := s.Get(state.P("v"), nil); got != float64(2) {
		t.Errorf("v = %v, want 2 after re-registration", got)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistry_Types(t *testing.T) {
	r := NewRegistry()
	r.Set("b", nil)
	r.Set("a", nil)
	r.Set("c", nil)

	types := r.Types()
	want := []event.Type{"a", "b", "c"}
	if len(types) != len(want) {
		t.Fatalf("Types() = %v", types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("Types()[%d] = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestRegistry_HandlerError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	r.Set("fail", func(s state.Snapshot, _ event.Event) (state.Snapshot, error) {
		return s, boom
	})

	if _, err := r.Apply(state.Empty(), event.New("fail", nil, "test")); !errors.Is(err, boom) {
		t.Errorf("expected handler error, got %v", err)
	}
}

func TestTyped_PayloadConversion(t *testing.T) {
	type rename struct {
		Name string `json:"name"`
	}
	fn := Typed(func(s state.Snapshot, p rename) (state.Snapshot, error) {
		return s.Set(state.P("name"), p.Name)
	})

	tests := []struct {
		name    string
		payload any
		want    any
		wantErr bool
	}{
		{"exact type", rename{Name: "a"}, "a", false},
		{"decoded map", map[string]any{"name": "b"}, "b", false},
		{"nil payload", nil, "", false},
		{"wrong type", 42, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := fn(state.Empty(), event.New("rename", tt.payload, "test"))
			if tt.wantErr {
				var perr *PayloadError
				if !errors.As(err, &perr) {
					t.Fatalf("expected *PayloadError, got %v", err)
				}
				if perr.Type != "rename" {
					t.Errorf("PayloadError.Type = %q", perr.Type)
				}
				if !s.Equal(state.Empty()) {
					t.Error("state should be unchanged on payload error")
				}
				return
			}
			if err != nil {
				t.Fatalf("handler failed: %v", err)
			}
			if got := s.Get(state.P("name"), nil); got != tt.want {
				t.Errorf("name = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTyped_FloatToInt(t *testing.T) {
	fn := Typed(incBy)
	s, err := fn(state.MustParse(`{"count":0}`), event.New("inc_by", float64(3), "test"))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if got := count(t, s); got != 3 {
		t.Errorf("count = %v, want 3", got)
	}
}

func TestPure(t *testing.T) {
	reset := Pure(func(s state.Snapshot) state.Snapshot {
		return state.MustParse(`{"count":0}`)
	})
	s, err := reset(state.MustParse(`{"count":9}`), event.New("reset", nil, "test"))
	if err != nil {
		t.Fatalf("Pure handler failed: %v", err)
	}
	if got := count(t, s); got != 0 {
		t.Errorf("count = %v, want 0", got)
	}
}
