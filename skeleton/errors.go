package skeleton

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a polygon that is not simple, has duplicate
	// points, or has the wrong orientation. It is returned before any
	// event is processed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNumericDegeneracy reports an event the kernel could not resolve
	// even after the deterministic tie-break.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")
)

// ValidationError locates the first problem found in an input polygon.
type ValidationError struct {
	Contour int
	Vertex  int
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: contour %d, vertex %d: %s", ErrInvalidInput, e.Contour, e.Vertex, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(contour, vertex int, format string, args ...any) error {
	return &ValidationError{Contour: contour, Vertex: vertex, Reason: fmt.Sprintf(format, args...)}
}
