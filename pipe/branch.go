package pipe

import "context"

// branchCase pairs a predicate with the operations selected when it matches.
type branchCase struct {
	key  string
	when Predicate
	ops  []Operation
}

// Branch selects one operation list by evaluating case predicates against
// the current message in registration order. The first matching case wins;
// if none match, the default list runs if present; otherwise Execute is a
// no-op. The selected list runs as a nested sub-run, so the branch is a
// single logical step at the parent's granularity.
type Branch struct {
	cases    []branchCase
	fallback []Operation
	executed []Operation
}

// NewBranch creates an empty conditional branch operation.
func NewBranch() *Branch {
	return &Branch{}
}

// When adds a case with a key (for diagnostics), a predicate, and the
// operations to run when the predicate matches first.
func (b *Branch) When(key string, when Predicate, ops ...Operation) *Branch {
	b.cases = append(b.cases, branchCase{key: key, when: when, ops: ops})
	return b
}

// Otherwise sets the default operation list, run when no case matches.
func (b *Branch) Otherwise(ops ...Operation) *Branch {
	b.fallback = ops
	return b
}

// Execute evaluates the cases in registration order and runs the selected
// list as a nested sub-run.
func (b *Branch) Execute(ctx context.Context, msg *Message) error {
	b.executed = nil
	for _, c := range b.cases {
		if c.when(msg) {
			executed, err := runNested(ctx, c.ops, msg)
			b.executed = executed
			return err
		}
	}
	if b.fallback != nil {
		executed, err := runNested(ctx, b.fallback, msg)
		b.executed = executed
		return err
	}
	return nil
}

// Rollback compensates only the sub-operations the selected case completed,
// in reverse order.
func (b *Branch) Rollback(ctx context.Context, msg *Message) error {
	rollbackNested(ctx, b.executed, msg)
	return nil
}

// Required reports false; a branch is skipped while the message is locked.
func (b *Branch) Required() bool { return false }

// Name identifies the branch for logging and telemetry.
func (b *Branch) Name() string { return "branch" }
