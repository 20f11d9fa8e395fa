package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for classifying pipeline failures with errors.Is.
var (
	// ErrMalformedInput marks unrecoverable input defects: unknown or
	// duplicate question ids, out-of-range values. Scoring never proceeds
	// past one.
	ErrMalformedInput = errors.New("malformed input")

	// ErrStoreFailure marks a failure to load or save run state. Without
	// trusted source answers no score can be trusted, so callers abort.
	ErrStoreFailure = errors.New("store failure")

	// ErrRunNotFound marks a lookup for a run id the store has no row for.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNotCompleted marks an attempt to score or dispatch a run that
	// is still in progress.
	ErrRunNotCompleted = errors.New("run not completed")
)

// MalformedInputError reports a hard input defect with enough context to
// diagnose without re-deriving state.
type MalformedInputError struct {
	RunID      string // run being scored, may be empty for schema validation
	QuestionID string // offending question, when applicable
	Reason     string
}

// Error implements the error interface.
func (e *MalformedInputError) Error() string {
	msg := "malformed input"
	if e.RunID != "" {
		msg += fmt.Sprintf(" in run %s", e.RunID)
	}
	if e.QuestionID != "" {
		msg += fmt.Sprintf(" (question %s)", e.QuestionID)
	}
	return msg + ": " + e.Reason
}

// Unwrap lets errors.Is(err, ErrMalformedInput) match.
func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

// StoreError wraps a load/save failure with the run it concerned.
type StoreError struct {
	RunID string
	Op    string // e.g. "load run", "save answers", "finalize"
	Err   error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure: %s for run %s: %v", e.Op, e.RunID, e.Err)
}

// Unwrap lets errors.Is(err, ErrStoreFailure) match while preserving the
// underlying driver error for errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches both the sentinel and the wrapped error chain.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}
