package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrIdempotencyConflict = errors.New("idempotency key reused with a different request")
	ErrInvariantViolation  = errors.New("split invariant violated")
	ErrLockNotAcquired     = errors.New("payment is already being processed")
)

// ValidationError is a malformed or out-of-range request field. Raised before any computation.
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

// ResolutionError means the professional or clinic behind a payment could not be found.
type ResolutionError struct {
	Entity string
	ID     string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s %s could not be resolved: %v", e.Entity, e.ID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// GatewayError wraps a failed or unreachable transfer execution.
// It is recovered inside the pipeline and only surfaces in the recorded status.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// PersistenceError is a failed ledger write or an invariant check that refused the write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
