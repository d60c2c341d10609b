package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that a lookup matched no record. It is a normal
	// outcome, not a failure.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidReference signals a record reference that is not a
	// well-formed identifier for the store.
	ErrInvalidReference = errors.New("malformed record reference")

	// ErrUnresolvableApplicant signals a booking whose applicant reference
	// is malformed or does not dereference to an existing applicant.
	ErrUnresolvableApplicant = errors.New("applicant reference does not resolve")

	// ErrDuplicatePassID signals that pass-id generation kept colliding with
	// existing records until the retry budget ran out.
	ErrDuplicatePassID = errors.New("pass id generation exhausted retries")

	// ErrInvalidAmount signals a non-numeric fare on a paid booking.
	ErrInvalidAmount = errors.New("amount is not numeric")
)

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
