package bind

import "github.com/dshills/flux/internal/state"

// Props are the named inputs of a component render.
type Props map[string]any

// Merge returns a new Props holding p overlaid with over.
// Neither map is modified.
func (p Props) Merge(over Props) Props {
	out := make(Props, len(p)+len(over))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy of p.
func (p Props) Clone() Props {
	return p.Merge(nil)
}

// Component renders itself from props.
type Component interface {
	Render(props Props) error
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(props Props) error

// Render calls f(props).
func (f ComponentFunc) Render(props Props) error {
	return f(props)
}

// MapProps derives props from the state. The result is merged over the
// component's own props on every render.
type MapProps func(get state.Getter, own Props) Props

func emptyProps(state.Getter, Props) Props {
	return Props{}
}
