package service

import (
	"errors"
	"fmt"

	"komal-desk/internal/remote"
)

var (
	// ErrInFlight is returned when the same mutation is already running
	ErrInFlight = errors.New("an identical request is already in progress")
	// ErrFilterClosed is returned when editing filters with the dialog closed
	ErrFilterClosed = errors.New("filter dialog is not open")
	// ErrNotFound is returned when an id is not in the screen's cache
	ErrNotFound = errors.New("not found")
	// ErrAlreadyCompleted is returned when completing a completed order
	ErrAlreadyCompleted = errors.New("order is already completed")
	// ErrPlanNotFound is returned for an unknown or expired cleanup plan
	ErrPlanNotFound = errors.New("cleanup plan not found")
	// ErrPlanExecuted is returned when a cleanup plan is confirmed twice
	ErrPlanExecuted = errors.New("cleanup plan already executed")
)

// ValidationError is raised before any network call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// MutationError wraps a failed remote mutation with the message shown to
// the user
type MutationError struct {
	Verb   string
	Entity string
	Err    error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Verb, e.Entity, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// UserMessage is the short text shown in the failure dialog
func (e *MutationError) UserMessage() string {
	return remote.UserMessage(e.Verb, e.Entity)
}

// IsValidation reports whether err is a client-side validation failure
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
