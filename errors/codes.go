package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Execution errors
const (
	// ErrCodeOperationFailed indicates an operation's Execute returned an error.
	ErrCodeOperationFailed ErrorCode = "OPERATION_FAILED"
	// ErrCodeOperationPanic indicates an operation's Execute panicked.
	ErrCodeOperationPanic ErrorCode = "OPERATION_PANIC"
	// ErrCodeRollbackFailed indicates a compensation step failed.
	ErrCodeRollbackFailed ErrorCode = "ROLLBACK_FAILED"
	// ErrCodeCanceled indicates the run was canceled before completion.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeTimeout indicates an operation exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Configuration errors
const (
	// ErrCodeConfigInvalid indicates the engine configuration failed validation.
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ErrCodeInvalidInput indicates a caller supplied an invalid argument.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Resolution errors
const (
	// ErrCodeResolveFailed indicates an operation could not be resolved by name.
	ErrCodeResolveFailed ErrorCode = "RESOLVE_FAILED"
	// ErrCodeAlreadyRegistered indicates a duplicate registration.
	ErrCodeAlreadyRegistered ErrorCode = "ALREADY_REGISTERED"
)

// Streaming errors
const (
	// ErrCodeStreamClosed indicates a send or receive on a released stream.
	ErrCodeStreamClosed ErrorCode = "STREAM_CLOSED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:         true,
	ErrCodeOperationFailed: false,
	ErrCodeOperationPanic:  false,
	ErrCodeRollbackFailed:  false,
	ErrCodeCanceled:        false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
