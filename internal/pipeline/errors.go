package pipeline

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrInvalidInput means the upload could not be read or decoded as an image.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoTextDetected means OCR found no usable words on the page.
	ErrNoTextDetected = errors.New("no text detected")
	// ErrMalformedGeometry means every word was dropped for an inverted box.
	ErrMalformedGeometry = errors.New("malformed word geometry")
	// ErrCollaborator means the OCR engine or the labeler failed.
	ErrCollaborator = errors.New("collaborator failure")
)

// Error is a failed parse step.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func newError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
