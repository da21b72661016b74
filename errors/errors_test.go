package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestEngineError_Error(t *testing.T) {
	err := New(ErrCodeOperationFailed, "save failed")
	if got := err.Error(); got != "OPERATION_FAILED: save failed" {
		t.Errorf("unexpected message: %s", got)
	}
}

func TestEngineError_ErrorWithCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := OperationFailed("persist-order", cause)
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected cause in message, got %s", err.Error())
	}
	if err.Details["operation"] != "persist-order" {
		t.Errorf("expected operation detail, got %v", err.Details)
	}
}

func TestEngineError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := RollbackFailed("charge", cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestEngineError_WithDetail(t *testing.T) {
	err := New(ErrCodeTimeout, "slow").WithDetail("attempt", 3)
	if err.Details["attempt"] != 3 {
		t.Errorf("expected detail, got %v", err.Details)
	}
}

func TestNew_RetryableDetection(t *testing.T) {
	if !New(ErrCodeTimeout, "slow").Retryable {
		t.Error("timeout should be retryable")
	}
	if New(ErrCodeOperationFailed, "bad").Retryable {
		t.Error("operation failure should not be retryable")
	}
}

func TestInnermost(t *testing.T) {
	root := stderrors.New("root cause")
	wrapped := fmt.Errorf("outer: %w", fmt.Errorf("middle: %w", root))
	if got := Innermost(wrapped); got != "root cause" {
		t.Errorf("expected root cause, got %q", got)
	}
}

func TestInnermost_Nil(t *testing.T) {
	if got := Innermost(nil); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Canceled(stderrors.New("ctx done")))
	if !IsCode(err, ErrCodeCanceled) {
		t.Error("expected CANCELED code through wrap chain")
	}
	if IsCode(err, ErrCodeTimeout) {
		t.Error("did not expect TIMEOUT code")
	}
	if IsCode(stderrors.New("plain"), ErrCodeCanceled) {
		t.Error("plain error should not match")
	}
}
