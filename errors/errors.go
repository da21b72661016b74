// Package errors provides unified error handling for the pipeline engine.
// It implements structured error types with machine-readable codes,
// retryable detection, and cause chains compatible with errors.Is/As.
package errors

import (
	"errors"
	"fmt"
)

// EngineError is the unified engine error type.
type EngineError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *EngineError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *EngineError) WithCause(cause error) *EngineError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *EngineError) WithDetail(key string, value any) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new EngineError with automatic retryable detection.
func New(code ErrorCode, message string) *EngineError {
	return &EngineError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// OperationFailed creates a new EngineError for an operation whose Execute returned an error.
func OperationFailed(operation string, cause error) *EngineError {
	return &EngineError{
		Code: ErrCodeOperationFailed, Message: fmt.Sprintf("operation %s failed", operation),
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// OperationPanic creates a new EngineError for an operation whose Execute panicked.
func OperationPanic(operation string, recovered any) *EngineError {
	return &EngineError{
		Code: ErrCodeOperationPanic, Message: fmt.Sprintf("operation %s panicked: %v", operation, recovered),
		Details: map[string]any{"operation": operation},
	}
}

// RollbackFailed creates a new EngineError for a compensation step that failed.
func RollbackFailed(operation string, cause error) *EngineError {
	return &EngineError{
		Code: ErrCodeRollbackFailed, Message: fmt.Sprintf("rollback of operation %s failed", operation),
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// Canceled creates a new EngineError for a run that was canceled.
func Canceled(cause error) *EngineError {
	return &EngineError{
		Code: ErrCodeCanceled, Message: "pipeline run canceled", Cause: cause,
	}
}

// ResolveFailed creates a new EngineError for an operation that could not be resolved.
func ResolveFailed(name string, cause error) *EngineError {
	return &EngineError{
		Code: ErrCodeResolveFailed, Message: fmt.Sprintf("unable to resolve operation %q", name),
		Details: map[string]any{"name": name}, Cause: cause,
	}
}

// AlreadyRegistered creates a new EngineError for a duplicate registration.
func AlreadyRegistered(name string) *EngineError {
	return &EngineError{
		Code: ErrCodeAlreadyRegistered, Message: fmt.Sprintf("operation %q already registered", name),
		Details: map[string]any{"name": name},
	}
}

// ConfigInvalid creates a new EngineError for configuration that failed validation.
func ConfigInvalid(message string) *EngineError {
	return &EngineError{
		Code: ErrCodeConfigInvalid, Message: message,
	}
}

// InvalidInput creates a new EngineError for an invalid caller-supplied argument.
func InvalidInput(field, reason string) *EngineError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &EngineError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		Details: details,
	}
}

// StreamClosed creates a new EngineError for use of a released stream.
func StreamClosed() *EngineError {
	return &EngineError{
		Code: ErrCodeStreamClosed, Message: "stream has been released",
	}
}

// Innermost walks the Unwrap chain and returns the message of the deepest error.
func Innermost(err error) string {
	if err == nil {
		return ""
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// IsCode reports whether err (or any error in its chain) carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}
