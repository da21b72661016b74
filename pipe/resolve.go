package pipe

import (
	"context"
	"sync"

	"github.com/kallebelins/mvp24hours-go/errors"
)

// Resolver obtains an operation instance by name. Resolution is performed
// entirely outside the engine, at the composition root; the engine only ever
// consumes the resolved instance.
type Resolver func(ctx context.Context, name string) (Operation, error)

// resolvedOperation defers resolution of a named operation to the pipeline's
// injected resolver. The instance is resolved once and cached for the
// pipeline's lifetime.
type resolvedOperation struct {
	name     string
	pipeline *Pipeline

	mu sync.Mutex
	op Operation
}

func (r *resolvedOperation) instance(ctx context.Context) (Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.op != nil {
		return r.op, nil
	}
	if r.pipeline.resolver == nil {
		return nil, errors.ResolveFailed(r.name, errors.New(errors.ErrCodeResolveFailed, "no resolver configured"))
	}
	op, err := r.pipeline.resolver(ctx, r.name)
	if err != nil {
		return nil, errors.ResolveFailed(r.name, err)
	}
	if op == nil {
		return nil, errors.ResolveFailed(r.name, errors.New(errors.ErrCodeResolveFailed, "resolver returned nil"))
	}
	r.op = op
	return op, nil
}

func (r *resolvedOperation) Execute(ctx context.Context, msg *Message) error {
	op, err := r.instance(ctx)
	if err != nil {
		return err
	}
	return op.Execute(ctx, msg)
}

func (r *resolvedOperation) Rollback(ctx context.Context, msg *Message) error {
	r.mu.Lock()
	op := r.op
	r.mu.Unlock()
	if op == nil {
		return nil
	}
	return op.Rollback(ctx, msg)
}

// Required reports the resolved operation's requirement; before resolution
// it reports false, matching the engine's skip-when-locked default.
func (r *resolvedOperation) Required() bool {
	r.mu.Lock()
	op := r.op
	r.mu.Unlock()
	if op == nil {
		return false
	}
	return op.Required()
}

func (r *resolvedOperation) Name() string { return r.name }
