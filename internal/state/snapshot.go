package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Fingerprinter is implemented by state values that expose a cheap
// structural fingerprint. Equal documents have equal fingerprints.
type Fingerprinter interface {
	Fingerprint() uint64
}

// Getter reads values out of the current state.
// A root path returns the whole Snapshot.
type Getter interface {
	Get(path Path, fallback any) any
}

// Snapshot is an immutable JSON document representing the whole
// application state at one point in time.
// Every update returns a new Snapshot; the receiver is never modified.
// The zero Snapshot is the null state.
type Snapshot struct {
	raw string
	sum uint64
}

const emptyDocument = "{}"

// Empty returns a Snapshot holding an empty object.
func Empty() Snapshot {
	return newSnapshot(emptyDocument)
}

// Parse builds a Snapshot from JSON text. The document is compacted so that
// equivalent formatting yields the same fingerprint.
func Parse(doc string) (Snapshot, error) {
	if !gjson.Valid(doc) {
		return Snapshot{}, ErrInvalidDocument
	}
	return newSnapshot(string(pretty.Ugly([]byte(doc)))), nil
}

// MustParse is like Parse but panics on invalid input.
// Intended for literals in tests and examples.
func MustParse(doc string) Snapshot {
	s, err := Parse(doc)
	if err != nil {
		panic(fmt.Sprintf("state: MustParse(%q): %v", doc, err))
	}
	return s
}

// FromValue encodes a Go value (map, struct, slice...) as a Snapshot.
// A nil value yields Empty.
func FromValue(v any) (Snapshot, error) {
	switch val := v.(type) {
	case nil:
		return Empty(), nil
	case Snapshot:
		if val.IsZero() {
			return Empty(), nil
		}
		return val, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return Snapshot{}, fmt.Errorf("encoding state: %w", err)
	}
	return newSnapshot(string(bytes.TrimRight(buf.Bytes(), "\n"))), nil
}

func newSnapshot(raw string) Snapshot {
	h := fnv.New64a()
	_, _ = h.Write(canonical(raw))
	return Snapshot{raw: raw, sum: h.Sum64()}
}

// canonical returns raw compacted with object keys sorted at every level.
func canonical(raw string) []byte {
	sorted := pretty.PrettyOptions([]byte(raw), &pretty.Options{SortKeys: true})
	return pretty.Ugly(sorted)
}

// IsZero reports whether s is the null state.
func (s Snapshot) IsZero() bool {
	return s.raw == ""
}

// Raw returns the compact JSON text of the document.
func (s Snapshot) Raw() string {
	if s.IsZero() {
		return "null"
	}
	return s.raw
}

// String returns the indented JSON text of the document.
func (s Snapshot) String() string {
	if s.IsZero() {
		return "null"
	}
	return string(pretty.Pretty([]byte(s.raw)))
}

// Fingerprint returns the structural fingerprint computed at construction.
// Documents that differ only in formatting or key order share a fingerprint.
func (s Snapshot) Fingerprint() uint64 {
	return s.sum
}

// Equal reports whether both snapshots hold the same document, ignoring
// key order.
func (s Snapshot) Equal(other Snapshot) bool {
	if s.raw == other.raw {
		return true
	}
	if s.sum != other.sum || s.IsZero() || other.IsZero() {
		return false
	}
	return string(canonical(s.raw)) == string(canonical(other.raw))
}

// Lookup returns the raw result at path and whether it exists.
// A root path returns the whole document.
func (s Snapshot) Lookup(path Path) (gjson.Result, bool) {
	if s.IsZero() {
		return gjson.Result{}, false
	}
	if path.IsRoot() {
		return gjson.Parse(s.raw), true
	}
	r := gjson.Get(s.raw, path.String())
	return r, r.Exists()
}

// Get returns the decoded value at path, or fallback when it is absent.
// Numbers decode as float64, objects as map[string]any and arrays as []any.
// A root path returns the Snapshot itself.
func (s Snapshot) Get(path Path, fallback any) any {
	if path.IsRoot() {
		return s
	}
	r, ok := s.Lookup(path)
	if !ok {
		return fallback
	}
	return r.Value()
}

// Decode unmarshals the value at path into v.
func (s Snapshot) Decode(path Path, v any) error {
	r, ok := s.Lookup(path)
	if !ok {
		return &PathError{Op: "decode", Path: path, Err: ErrNotFound}
	}
	if err := json.Unmarshal([]byte(r.Raw), v); err != nil {
		return &PathError{Op: "decode", Path: path, Err: err}
	}
	return nil
}

// Set returns a copy of s with value stored at path.
// Setting the root path replaces the whole document.
func (s Snapshot) Set(path Path, value any) (Snapshot, error) {
	if path.IsRoot() {
		return FromValue(value)
	}
	if inner, ok := value.(Snapshot); ok {
		return s.SetRaw(path, inner.Raw())
	}
	out, err := sjson.Set(s.base(), path.String(), value)
	if err != nil {
		return s, &PathError{Op: "set", Path: path, Err: err}
	}
	return newSnapshot(out), nil
}

// SetRaw returns a copy of s with raw JSON stored at path.
func (s Snapshot) SetRaw(path Path, raw string) (Snapshot, error) {
	if !gjson.Valid(raw) {
		return s, &PathError{Op: "set", Path: path, Err: ErrInvalidDocument}
	}
	if path.IsRoot() {
		return Parse(raw)
	}
	out, err := sjson.SetRaw(s.base(), path.String(), raw)
	if err != nil {
		return s, &PathError{Op: "set", Path: path, Err: err}
	}
	return newSnapshot(out), nil
}

// Update stores fn(current) at path. current is the zero gjson.Result when
// the path does not exist yet.
func (s Snapshot) Update(path Path, fn func(current gjson.Result) any) (Snapshot, error) {
	cur, _ := s.Lookup(path)
	return s.Set(path, fn(cur))
}

// Delete returns a copy of s without the value at path.
// Deleting a missing path returns s unchanged.
func (s Snapshot) Delete(path Path) (Snapshot, error) {
	if path.IsRoot() {
		return s, &PathError{Op: "delete", Path: path, Err: ErrEmptyPath}
	}
	if _, ok := s.Lookup(path); !ok {
		return s, nil
	}
	out, err := sjson.Delete(s.raw, path.String())
	if err != nil {
		return s, &PathError{Op: "delete", Path: path, Err: err}
	}
	return newSnapshot(out), nil
}

// MarshalJSON implements json.Marshaler.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return []byte(s.Raw()), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Snapshot{}
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Snapshot) base() string {
	if s.IsZero() {
		return emptyDocument
	}
	return s.raw
}
