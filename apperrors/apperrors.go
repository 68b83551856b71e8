package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that map it to a response or a
// remediation path.
type Kind int

const (
	Internal Kind = iota
	NotFound
	Validation
	IndexUnavailable
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Validation:
		return "validation"
	case IndexUnavailable:
		return "index unavailable"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Is reports whether any error in err's chain carries the given kind.
func Is(err error, kind Kind) bool {
	var appError *Error
	if errors.As(err, &appError) {
		return appError.Kind == kind
	}
	return false
}
