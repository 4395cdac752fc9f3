// Package apperr defines the error values shared across service layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrNoTranslatableContent means the target scope has no active,
	// non-empty translation records. No draft is written.
	ErrNoTranslatableContent = errors.New("no translatable content")

	// ErrMalformedDocument means a source document could not be classified
	// line by line.
	ErrMalformedDocument = errors.New("malformed document")
)

// ParseError reports a line that could not be classified.
type ParseError struct {
	Line int // 1-based
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedDocument
}
