package resilience

import (
	"context"

	"github.com/kallebelins/mvp24hours-go/pipe"
)

// retryOperation wraps an operation so its Execute is retried. Rollback is
// never retried; a compensation step that fails is reported once.
type retryOperation struct {
	op  pipe.Operation
	cfg RetryConfig
}

// RetryOperation decorates an operation with retry behavior.
func RetryOperation(op pipe.Operation, cfg RetryConfig) pipe.Operation {
	return &retryOperation{op: op, cfg: cfg}
}

func (r *retryOperation) Execute(ctx context.Context, msg *pipe.Message) error {
	return RetryFunc(ctx, r.cfg, func() error {
		return r.op.Execute(ctx, msg)
	})
}

func (r *retryOperation) Rollback(ctx context.Context, msg *pipe.Message) error {
	return r.op.Rollback(ctx, msg)
}

func (r *retryOperation) Required() bool { return r.op.Required() }

func (r *retryOperation) Name() string {
	if n, ok := r.op.(pipe.Named); ok {
		return "retry(" + n.Name() + ")"
	}
	return "retry"
}

// bulkheadOperation wraps an operation so its Execute competes for the
// bulkhead's slots.
type bulkheadOperation struct {
	op pipe.Operation
	b  *Bulkhead
}

// BulkheadOperation decorates an operation with a shared concurrency cap.
func BulkheadOperation(op pipe.Operation, b *Bulkhead) pipe.Operation {
	return &bulkheadOperation{op: op, b: b}
}

func (o *bulkheadOperation) Execute(ctx context.Context, msg *pipe.Message) error {
	return o.b.Execute(ctx, func() error {
		return o.op.Execute(ctx, msg)
	})
}

func (o *bulkheadOperation) Rollback(ctx context.Context, msg *pipe.Message) error {
	return o.op.Rollback(ctx, msg)
}

func (o *bulkheadOperation) Required() bool { return o.op.Required() }

func (o *bulkheadOperation) Name() string {
	if n, ok := o.op.(pipe.Named); ok {
		return "bulkhead(" + n.Name() + ")"
	}
	return "bulkhead(" + o.b.config.Name + ")"
}
