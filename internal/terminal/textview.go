package terminal

import (
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/flux/internal/bind"
)

// FormatFunc turns props into the lines a TextView draws.
type FormatFunc func(props bind.Props) []string

// TextView is a bind.Component that redraws the whole screen as lines of
// text on every render.
type TextView struct {
	term   *Terminal
	format FormatFunc
	style  tcell.Style
}

// NewTextView creates a TextView. A nil format lists props as sorted
// "key: value" lines.
func NewTextView(term *Terminal, format FormatFunc) *TextView {
	if format == nil {
		format = PropLines
	}
	return &TextView{term: term, format: format, style: tcell.StyleDefault}
}

// WithStyle sets the text style and returns v.
func (v *TextView) WithStyle(style tcell.Style) *TextView {
	v.style = style
	return v
}

// Render implements bind.Component.
func (v *TextView) Render(props bind.Props) error {
	v.term.mu.Lock()
	closed := v.term.closed
	v.term.mu.Unlock()
	if closed {
		return ErrClosed
	}

	v.term.Clear()
	for i, line := range v.format(props) {
		v.term.DrawText(0, i, line, v.style)
	}
	v.term.Show()
	return nil
}

// PropLines lists props as "key: value" lines sorted by key.
func PropLines(props bind.Props) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, props[k]))
	}
	return lines
}

var _ bind.Component = (*TextView)(nil)
