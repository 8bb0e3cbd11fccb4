package types

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every component. Client-facing errors are never
// retried automatically; ErrScoringUnavailable and ErrStoreUnavailable are
// safe to retry for idempotent operations.
var (
	ErrNotFound           = errors.New("not found")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrPrerequisiteNotMet = errors.New("prerequisite not met")
	ErrScoringUnavailable = errors.New("scoring unavailable")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// ValidationError indicates malformed input.
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

// StoreError wraps a persistence failure so callers can match ErrStoreUnavailable
// while keeping the driver error for logs.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Cause)
}

// Unwrap exposes the driver error.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is makes every StoreError match ErrStoreUnavailable.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// NewStoreError wraps cause; a nil cause yields nil.
func NewStoreError(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &StoreError{Op: op, Cause: cause}
}
