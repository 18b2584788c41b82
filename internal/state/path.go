package state

import "strings"

// Path addresses a value inside a Snapshot as an ordered list of keys.
// Array elements are addressed by their decimal index.
type Path []string

// P builds a Path from keys.
func P(keys ...string) Path {
	return Path(keys)
}

// Append returns a new Path with keys appended. The receiver is not modified.
func (p Path) Append(keys ...string) Path {
	out := make(Path, 0, len(p)+len(keys))
	out = append(out, p...)
	return append(out, keys...)
}

// IsRoot reports whether the path addresses the whole document.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// String returns the escaped gjson/sjson form of the path.
func (p Path) String() string {
	var b strings.Builder
	for i, key := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		escapeKey(&b, key)
	}
	return b.String()
}

// escapeKey writes key with every path metacharacter backslash-escaped.
func escapeKey(b *strings.Builder, key string) {
	for i := 0; i < len(key); i++ {
		switch c := key[i]; c {
		case '\\', '.', '*', '?', '|', '#', '@', '!', '=', '<', '>', '%', ':':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
}
