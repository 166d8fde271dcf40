// Package errors defines the error kinds surfaced to users of the chart tool.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how callers are expected to recover from it.
type Kind string

const (
	// KindValidation covers bad or missing task fields and malformed filter dates.
	KindValidation Kind = "validation"
	// KindIndex is an operation on a task position that does not exist.
	KindIndex Kind = "index"
	// KindPersistence is a task file read or write failure.
	KindPersistence Kind = "persistence"
	// KindImport is a malformed import file or unsupported extension.
	KindImport Kind = "import"
	// KindService is a failure of the external text-generation service.
	KindService Kind = "service"
)

// Error is a classified error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Validation is shorthand for New(KindValidation, ...).
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
