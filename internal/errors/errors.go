package errors

import (
	"errors"
	"fmt"
	"time"
)

// Base error types
var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTimeout          = errors.New("timeout")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConnectionFailed = errors.New("connection failed")
	ErrMalformedRecord  = errors.New("malformed record")
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeConnection ErrorType = "connection"
	ErrorTypeFetch      ErrorType = "fetch"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeInternal   ErrorType = "internal"
)

// MonitorError is a structured error for monitoring operations.
type MonitorError struct {
	Type      ErrorType
	Op        string // Operation that failed (e.g., "fetch_queue_attributes", "scan_work_pool")
	Resource  string // Resource name where the error occurred (queue name, table name)
	Err       error  // Underlying error
	Timestamp time.Time
	Retryable bool
}

func (e *MonitorError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s failed on %s: %v", e.Op, e.Resource, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *MonitorError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is matching against the base error types.
func (e *MonitorError) Is(target error) bool {
	if target == nil {
		return false
	}

	switch target {
	case ErrNotFound:
		return e.Type == ErrorTypeNotFound
	case ErrUnauthorized:
		return e.Type == ErrorTypeAuth
	case ErrTimeout:
		return e.Type == ErrorTypeTimeout
	case ErrConnectionFailed:
		return e.Type == ErrorTypeConnection
	}

	return errors.Is(e.Err, target)
}

// NewMonitorError creates a new MonitorError
func NewMonitorError(errorType ErrorType, op, resource string, err error) *MonitorError {
	return &MonitorError{
		Type:      errorType,
		Op:        op,
		Resource:  resource,
		Err:       err,
		Timestamp: time.Now(),
		Retryable: isRetryable(errorType, err),
	}
}

// isRetryable determines if an error should be retried on a later cycle
func isRetryable(errorType ErrorType, err error) bool {
	switch errorType {
	case ErrorTypeConnection, ErrorTypeTimeout, ErrorTypeFetch:
		return true
	case ErrorTypeAuth, ErrorTypeValidation, ErrorTypeNotFound:
		return false
	default:
		if err != nil {
			return !errors.Is(err, ErrInvalidInput) && !errors.Is(err, ErrUnauthorized)
		}
		return true
	}
}

// Helper functions

// WrapAuthError wraps a credential/authentication error with context
func WrapAuthError(op, resource string, err error) error {
	return NewMonitorError(ErrorTypeAuth, op, resource, err)
}

// WrapFetchError wraps a transient per-cycle fetch error with context
func WrapFetchError(op, resource string, err error) error {
	return NewMonitorError(ErrorTypeFetch, op, resource, err)
}

// WrapNotFoundError wraps a missing-target error with context
func WrapNotFoundError(op, resource string, err error) error {
	return NewMonitorError(ErrorTypeNotFound, op, resource, err)
}

// WrapValidationError wraps a malformed-record error with context
func WrapValidationError(op, resource string, err error) error {
	return NewMonitorError(ErrorTypeValidation, op, resource, err)
}

// IsRetryableError checks if an error should be retried
func IsRetryableError(err error) bool {
	var monErr *MonitorError
	if errors.As(err, &monErr) {
		return monErr.Retryable
	}

	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrConnectionFailed)
}

// IsAuthError checks if an error is a credential/authentication error
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	var monErr *MonitorError
	if errors.As(err, &monErr) {
		return monErr.Type == ErrorTypeAuth
	}

	return errors.Is(err, ErrUnauthorized)
}

// IsNotFoundError checks if an error marks a target that does not exist
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var monErr *MonitorError
	if errors.As(err, &monErr) {
		return monErr.Type == ErrorTypeNotFound
	}

	return errors.Is(err, ErrNotFound)
}
