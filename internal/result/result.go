// Package result holds the outcome type shared by every task operation.
//
// A Result is exactly one of Success, *ValidationError or *StoreError.
// Consumers switch on the concrete type:
//
//	switch r := res.(type) {
//	case result.Success:
//	case *result.ValidationError:
//	case *result.StoreError:
//	}
package result

import (
	"context"
	"errors"
	"fmt"

	"github.com/tgienger/stask/internal/models"
)

// Result is the outcome of a coordinator operation
type Result interface {
	Message() string
	isResult()
}

// Undo reverses a confirmed delete. Tasks holds the exact values that were
// removed so they can be reinserted unchanged.
type Undo struct {
	Label string
	Tasks []models.Task
	Run   func(ctx context.Context) Result
}

// Success carries a user-facing message and, after deletes, an undo action.
type Success struct {
	Text string
	Undo *Undo
}

func (s Success) Message() string { return s.Text }
func (Success) isResult()         {}

// Field names used for inline form errors.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
)

// ValidationError is a locally detected, user-fixable problem. It never
// reaches the store.
type ValidationError struct {
	Text  string
	Field string // optional, set for form fields
}

// Invalid builds a ValidationError with a formatted message
func Invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Text: fmt.Sprintf(format, args...)}
}

// InvalidField builds a ValidationError tied to a form field
func InvalidField(field, text string) *ValidationError {
	return &ValidationError{Text: text, Field: field}
}

func (e *ValidationError) Error() string   { return e.Text }
func (e *ValidationError) Message() string { return e.Text }
func (*ValidationError) isResult()         {}

// StoreError means the store call itself failed. It is not retried.
type StoreError struct {
	Text string
	Err  error
}

// FromStore wraps a store failure with an operation prefix
func FromStore(prefix string, err error) *StoreError {
	return &StoreError{Text: prefix + ": " + err.Error(), Err: err}
}

func (e *StoreError) Error() string   { return e.Text }
func (e *StoreError) Message() string { return e.Text }
func (e *StoreError) Unwrap() error   { return e.Err }
func (*StoreError) isResult()         {}

// IsSuccess reports whether r is a Success
func IsSuccess(r Result) bool {
	_, ok := r.(Success)
	return ok
}

// Classify turns an error into a Result. Validation errors pass through;
// anything else is treated as a store failure with the given prefix.
func Classify(prefix string, err error) Result {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	var serr *StoreError
	if errors.As(err, &serr) {
		return serr
	}
	return FromStore(prefix, err)
}
