package handler

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/dshills/flux/internal/event"
	"github.com/dshills/flux/internal/state"
)

// PayloadError is returned by a Typed handler when the event payload
// cannot be used as the handler's argument type.
type PayloadError struct {
	Type event.Type
	Want string
	Got  any
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("handler %s: payload %T is not %s", e.Type, e.Got, e.Want)
}

// Typed adapts a handler with a strongly typed argument.
//
// A nil payload passes the zero P. A payload of another type is converted
// through its JSON form, which covers values decoded from scripts or config
// (float64 for int, map[string]any for structs). When that fails the
// handler returns a *PayloadError and the state is left unchanged.
func Typed[P any](fn func(s state.Snapshot, payload P) (state.Snapshot, error)) Func {
	return func(s state.Snapshot, evt event.Event) (state.Snapshot, error) {
		p, err := payloadAs[P](evt)
		if err != nil {
			return s, err
		}
		return fn(s, p)
	}
}

// Pure adapts a handler that ignores its payload and cannot fail.
func Pure(fn func(s state.Snapshot) state.Snapshot) Func {
	return func(s state.Snapshot, _ event.Event) (state.Snapshot, error) {
		return fn(s), nil
	}
}

func payloadAs[P any](evt event.Event) (P, error) {
	var zero P
	if evt.Payload == nil {
		return zero, nil
	}
	if p, ok := evt.Payload.(P); ok {
		return p, nil
	}

	perr := &PayloadError{
		Type: evt.Type,
		Want: reflect.TypeOf((*P)(nil)).Elem().String(),
		Got:  evt.Payload,
	}
	data, err := json.Marshal(evt.Payload)
	if err != nil {
		return zero, perr
	}
	var p P
	if err := json.Unmarshal(data, &p); err != nil {
		return zero, perr
	}
	return p, nil
}
