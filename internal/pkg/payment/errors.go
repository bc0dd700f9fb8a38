package payment

import (
	"errors"
	"fmt"
)

var (
	ErrMissingSignature       = errors.New("missing webhook signature")
	ErrInvalidSignature       = errors.New("invalid webhook signature")
	ErrParticipantNotFound    = errors.New("participant not found")
	ErrInvalidStatus          = errors.New("invalid payment status")
	ErrConcurrentUpdate       = errors.New("payment status changed concurrently")
	ErrPaymentAlreadyAssigned = errors.New("participant already has a payment id")
	ErrNotPaid                = errors.New("participant has not paid")
)

// ValidationError reports a malformed webhook payload or request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// StoreError wraps a data-store failure. Callers treat it as transient.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// SideEffectError is the failure of a single best-effort task.
type SideEffectError struct {
	Task string
	Err  error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("side effect %s: %v", e.Task, e.Err)
}

func (e *SideEffectError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err may succeed on a later attempt.
func IsTransient(err error) bool {
	var se *StoreError
	return errors.As(err, &se) || errors.Is(err, ErrConcurrentUpdate)
}
