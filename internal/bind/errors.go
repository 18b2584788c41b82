package bind

import "errors"

var (
	// ErrAlreadyMounted is returned by Mount on a mounted component.
	ErrAlreadyMounted = errors.New("component already mounted")

	// ErrNilComponent is returned when connecting a nil component.
	ErrNilComponent = errors.New("nil component")
)
