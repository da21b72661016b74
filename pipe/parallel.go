package pipe

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kallebelins/mvp24hours-go/errors"
)

// ParallelGroup runs its operations concurrently against the shared message,
// bounded by a hard concurrency cap. Completion ordering between branches is
// unspecified; the aggregate fault policy is the only ordering-independent
// guarantee.
//
// A branch fault always lands on the shared message as an Error entry, so
// the message ends faulty either way. RequireAllSuccess controls whether the
// first unhandled branch failure also cancels branches that have not started.
type ParallelGroup struct {
	operations        []Operation
	maxParallel       int
	requireAllSuccess bool

	mu       sync.Mutex
	executed []int
}

// GroupOption configures a ParallelGroup at construction time.
type GroupOption func(*ParallelGroup)

// WithMaxParallel caps concurrent branches. Zero or negative means one
// branch per operation.
func WithMaxParallel(n int) GroupOption {
	return func(g *ParallelGroup) { g.maxParallel = n }
}

// WithRequireAllSuccess makes the first unhandled branch failure cancel the
// remaining un-started branches.
func WithRequireAllSuccess() GroupOption {
	return func(g *ParallelGroup) { g.requireAllSuccess = true }
}

// NewParallelGroup creates an empty parallel operation group.
func NewParallelGroup(opts ...GroupOption) *ParallelGroup {
	g := &ParallelGroup{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Add appends operations to the group in order. Ordering only affects
// rollback, which runs in reverse-add order over completed branches.
func (g *ParallelGroup) Add(ops ...Operation) *ParallelGroup {
	g.operations = append(g.operations, ops...)
	return g
}

// Operations returns the group's operation list in insertion order.
func (g *ParallelGroup) Operations() []Operation {
	out := make([]Operation, len(g.operations))
	copy(out, g.operations)
	return out
}

func (g *ParallelGroup) concurrency() int {
	if g.maxParallel <= 0 || g.maxParallel > len(g.operations) {
		return len(g.operations)
	}
	return g.maxParallel
}

// Execute runs the group's operations concurrently. Branch faults are
// reflected onto the shared message; the group itself returns an error only
// on cancellation.
func (g *ParallelGroup) Execute(ctx context.Context, msg *Message) error {
	if len(g.operations) == 0 {
		return nil
	}
	g.mu.Lock()
	g.executed = nil
	g.mu.Unlock()

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency())

	for i, op := range g.operations {
		i, op := i, op
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if msg.IsLocked() && !op.Required() {
				return nil
			}
			if err := safeExecute(gctx, op, msg); err != nil {
				if isCancellation(err) {
					return err
				}
				msg.AddError(errors.Innermost(err))
				msg.setFailure(err)
				if g.requireAllSuccess {
					// Returning the error cancels gctx, stopping
					// branches that have not begun.
					return err
				}
				return nil
			}
			g.mu.Lock()
			g.executed = append(g.executed, i)
			g.mu.Unlock()
			return nil
		})
	}

	err := eg.Wait()
	if err != nil && ctx.Err() != nil {
		return errors.Canceled(ctx.Err())
	}
	// A branch failure under RequireAllSuccess is already reflected on the
	// message; it is not a group-level error for the parent orchestrator.
	return nil
}

// Rollback compensates completed branches in reverse-add order.
func (g *ParallelGroup) Rollback(ctx context.Context, msg *Message) error {
	g.mu.Lock()
	executed := make([]int, len(g.executed))
	copy(executed, g.executed)
	g.mu.Unlock()

	sort.Ints(executed)
	order := make([]Operation, 0, len(executed))
	for _, idx := range executed {
		order = append(order, g.operations[idx])
	}
	rollbackNested(ctx, order, msg)
	return nil
}

// Required reports false; a group is skipped while the message is locked.
func (g *ParallelGroup) Required() bool { return false }

// Name identifies the group for logging and telemetry.
func (g *ParallelGroup) Name() string { return "parallel-group" }
