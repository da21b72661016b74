package pipe

import (
	"context"
	"time"
)

// Observer receives named phase-transition events from the engine. The engine
// depends only on this interface; implementations (logging, tracing, metrics)
// live outside the core. All callbacks run synchronously on the executing
// goroutine and must be cheap or hand off to their own machinery.
type Observer interface {
	// RunStart fires once before the main operation sequence.
	RunStart(ctx context.Context, msg *Message)
	// RunEnd fires once after the run completes, rollback included.
	RunEnd(ctx context.Context, msg *Message, elapsed time.Duration)
	// OperationStart fires before each operation's Execute.
	OperationStart(ctx context.Context, operation string, msg *Message)
	// OperationEnd fires after each operation's Execute, err non-nil on
	// an unhandled failure.
	OperationEnd(ctx context.Context, operation string, msg *Message, elapsed time.Duration, err error)
	// Failure fires when an unhandled failure is captured into the message.
	Failure(ctx context.Context, operation string, msg *Message, err error)
	// RollbackStart fires once before reverse-order compensation.
	RollbackStart(ctx context.Context, msg *Message)
	// RollbackEnd fires once after compensation, even if steps failed.
	RollbackEnd(ctx context.Context, msg *Message)
}

// NopObserver is an Observer that ignores every event.
type NopObserver struct{}

func (NopObserver) RunStart(context.Context, *Message)                                   {}
func (NopObserver) RunEnd(context.Context, *Message, time.Duration)                      {}
func (NopObserver) OperationStart(context.Context, string, *Message)                     {}
func (NopObserver) OperationEnd(context.Context, string, *Message, time.Duration, error) {}
func (NopObserver) Failure(context.Context, string, *Message, error)                     {}
func (NopObserver) RollbackStart(context.Context, *Message)                              {}
func (NopObserver) RollbackEnd(context.Context, *Message)                                {}
