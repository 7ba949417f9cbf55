package domain

import (
	"errors"
	"fmt"
)

// ErrLockHeld is returned by a Locker when another holder owns the key.
var ErrLockHeld = errors.New("lock is held by another request")

// ValidationError reports a malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NotFoundError reports a missing interview, candidate, position or job.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConflictError reports a request that lost a race or hit a state that forbids it.
// Retryable is set when the same request may succeed later.
type ConflictError struct {
	Message   string
	Retryable bool
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Message)
}

// EvaluationUnavailable wraps any failure of the language model boundary:
// transport errors, empty output and output that fails validation.
type EvaluationUnavailable struct {
	Message string
	Cause   error
}

func (e *EvaluationUnavailable) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("evaluation unavailable: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("evaluation unavailable: %s", e.Message)
}

func (e *EvaluationUnavailable) Unwrap() error {
	return e.Cause
}

// PersistenceError wraps a failed store read or write.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("persistence error during %s", e.Op)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the caller may repeat the operation unchanged.
func IsRetryable(err error) bool {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict.Retryable
	}
	var unavailable *EvaluationUnavailable
	var persistence *PersistenceError
	return errors.As(err, &unavailable) || errors.As(err, &persistence)
}
