// Package state holds the application state of a flux store.
//
// State is a single immutable JSON document, the Snapshot. Reads address
// values by Path through gjson; writes go through sjson and always produce
// a new Snapshot, so a Snapshot handed to a subscriber or a component can be
// kept and compared later without copying.
//
// # Paths
//
// A Path is an ordered list of object keys or array indexes:
//
//	snap.Get(state.Path{"todos", "0", "title"}, "")
//
// Keys are escaped before they reach gjson, so a key such as "a.b" addresses
// the single member named "a.b" rather than a nested member.
//
// # Fingerprints
//
// Every Snapshot carries a 64-bit fingerprint of its document, computed once
// when the Snapshot is built. Renderers compare fingerprints to decide whether
// a redraw is needed; see the Fingerprinter interface.
//
// # Holder
//
// Holder owns the current Snapshot of a store. Set replaces it with a single
// atomic store and ignores the zero Snapshot, so readers never observe a
// partial update.
package state
