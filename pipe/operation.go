package pipe

import (
	"context"
	"fmt"
	"strings"
)

// Operation is the unit of work accepted by a pipeline.
//
// Execute mutates the message in place. Expected business failures should be
// recorded with msg.AddError and a nil return; a non-nil error is treated as
// an unhandled failure and captured by the orchestrator. Rollback compensates
// a previously successful Execute and is invoked in reverse order when the
// run ends faulty and rollback is configured. Required operations still run
// when the message is locked.
type Operation interface {
	Execute(ctx context.Context, msg *Message) error
	Rollback(ctx context.Context, msg *Message) error
	Required() bool
}

// Named is optionally implemented by operations that carry a stable name for
// logging and telemetry. Operations without it are identified by their type.
type Named interface {
	Name() string
}

// Base is a convenience embed for operations that need no rollback and are
// skippable when the message is locked.
type Base struct{}

// Rollback is a no-op.
func (Base) Rollback(ctx context.Context, msg *Message) error { return nil }

// Required reports false; the operation is skipped while the message is locked.
func (Base) Required() bool { return false }

// actionOperation adapts a plain function into an Operation.
type actionOperation struct {
	name     string
	fn       func(ctx context.Context, msg *Message) error
	required bool
}

// Action wraps a plain function as an ad-hoc, non-required operation with a
// no-op rollback.
func Action(fn func(ctx context.Context, msg *Message) error) Operation {
	return &actionOperation{name: "action", fn: fn}
}

// RequiredAction wraps a plain function as an ad-hoc operation that still
// executes when the message is locked.
func RequiredAction(fn func(ctx context.Context, msg *Message) error) Operation {
	return &actionOperation{name: "action", fn: fn, required: true}
}

// NamedAction wraps a plain function as a non-required operation with a
// stable name for logging and telemetry.
func NamedAction(name string, fn func(ctx context.Context, msg *Message) error) Operation {
	return &actionOperation{name: name, fn: fn}
}

func (a *actionOperation) Execute(ctx context.Context, msg *Message) error {
	return a.fn(ctx, msg)
}

func (a *actionOperation) Rollback(ctx context.Context, msg *Message) error { return nil }

func (a *actionOperation) Required() bool { return a.required }

func (a *actionOperation) Name() string { return a.name }

// operationName resolves a stable identifier for an operation.
func operationName(op Operation) string {
	if n, ok := op.(Named); ok {
		return n.Name()
	}
	return strings.TrimLeft(fmt.Sprintf("%T", op), "*")
}

// safeExecute runs an operation's Execute, converting a panic into an error.
func safeExecute(ctx context.Context, op Operation, msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = operationPanicError(operationName(op), r)
		}
	}()
	return op.Execute(ctx, msg)
}

// safeRollback runs an operation's Rollback, converting a panic into an error.
func safeRollback(ctx context.Context, op Operation, msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = operationPanicError(operationName(op), r)
		}
	}()
	return op.Rollback(ctx, msg)
}
