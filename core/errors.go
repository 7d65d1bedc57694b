package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConflictError reports a mutation refused because dependent records exist,
// e.g. deleting a document that still has media consents attached. It is kept
// distinct from ValidationError so callers can render a specific message.
type ConflictError struct {
	Resource string
	Reason   string
}

func NewConflictError(resource, reason string) error {
	return &ConflictError{Resource: resource, Reason: reason}
}

func (err ConflictError) Error() string {
	return "cannot modify " + err.Resource + ": " + err.Reason
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
