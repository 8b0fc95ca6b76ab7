package core

import (
	"fmt"

	"github.com/pkg/errors"
)

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

// PartialCascadeError reports a cascading delete that may not have fully
// completed. Callers should re-query to confirm the cascade before assuming
// dependent records are gone.
type PartialCascadeError struct {
	Entity string
	ID     string
	Step   string
	Err    error
}

func NewPartialCascadeError(entity, id, step string, err error) error {
	return &PartialCascadeError{Entity: entity, ID: id, Step: step, Err: err}
}

func (e PartialCascadeError) Error() string {
	return fmt.Sprintf("cascade delete of %s %s failed at %s: %v", e.Entity, e.ID, e.Step, e.Err)
}

// Unwrap exposes the underlying failure without letting errors.Cause skip
// past the cascade context; callers match on *PartialCascadeError itself.
func (e *PartialCascadeError) Unwrap() error { return e.Err }

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
