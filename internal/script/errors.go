package script

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when using a closed engine.
	ErrClosed = errors.New("script engine closed")

	// ErrTimeout is returned when a Lua call runs past the call timeout.
	ErrTimeout = errors.New("script timeout")
)

// ScriptError reports a failure inside a script.
type ScriptError struct {
	// Name is the script name or path.
	Name string
	// Func names the handler or intent being run, if any.
	Func string
	// Err is the underlying error.
	Err error
}

func (e *ScriptError) Error() string {
	if e.Func != "" {
		return fmt.Sprintf("script %s: %s: %v", e.Name, e.Func, e.Err)
	}
	return fmt.Sprintf("script %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
