package state

import (
	"sync/atomic"

	"github.com/tidwall/gjson"
)

// Holder owns the current Snapshot of a store.
// It is safe for concurrent use; Set is a single atomic replacement.
type Holder struct {
	cur atomic.Pointer[Snapshot]
}

// NewHolder creates a holder with the given initial state.
// The zero Snapshot is replaced by Empty.
func NewHolder(initial Snapshot) *Holder {
	if initial.IsZero() {
		initial = Empty()
	}
	h := &Holder{}
	h.cur.Store(&initial)
	return h
}

// Snapshot returns the current state.
func (h *Holder) Snapshot() Snapshot {
	return *h.cur.Load()
}

// Get returns the whole Snapshot for a root path, otherwise the decoded
// value at path or fallback when it is absent.
func (h *Holder) Get(path Path, fallback any) any {
	return h.Snapshot().Get(path, fallback)
}

// Lookup returns the raw result at path.
func (h *Holder) Lookup(path Path) (gjson.Result, bool) {
	return h.Snapshot().Lookup(path)
}

// Set replaces the current state with next unless next is the zero
// Snapshot, and returns the state now held.
func (h *Holder) Set(next Snapshot) Snapshot {
	if next.IsZero() {
		return h.Snapshot()
	}
	h.cur.Store(&next)
	return next
}

// Fingerprint returns the fingerprint of the current state.
func (h *Holder) Fingerprint() uint64 {
	return h.Snapshot().Fingerprint()
}

var (
	_ Getter        = (*Holder)(nil)
	_ Getter        = Snapshot{}
	_ Fingerprinter = Snapshot{}
	_ Fingerprinter = (*Holder)(nil)
)
