package pipe

import "context"

// Scope runs a named operation list as one atomic nested unit. It exists for
// logical grouping: mechanics are identical to a branch case, and its
// rollback reverses only its own executed sub-operations.
type Scope struct {
	name       string
	operations []Operation
	executed   []Operation
}

// NewScope creates a named sub-pipeline operation.
func NewScope(name string, ops ...Operation) *Scope {
	return &Scope{name: name, operations: ops}
}

// Add appends operations to the scope in order.
func (s *Scope) Add(ops ...Operation) *Scope {
	s.operations = append(s.operations, ops...)
	return s
}

// Operations returns the scope's operation list in insertion order.
func (s *Scope) Operations() []Operation {
	out := make([]Operation, len(s.operations))
	copy(out, s.operations)
	return out
}

// Execute runs the scope's operations as a nested sub-run with interceptors
// suppressed.
func (s *Scope) Execute(ctx context.Context, msg *Message) error {
	s.executed = nil
	executed, err := runNested(ctx, s.operations, msg)
	s.executed = executed
	return err
}

// Rollback compensates only the scope's own executed sub-operations, in
// reverse order.
func (s *Scope) Rollback(ctx context.Context, msg *Message) error {
	rollbackNested(ctx, s.executed, msg)
	return nil
}

// Required reports false; a scope is skipped while the message is locked.
func (s *Scope) Required() bool { return false }

// Name returns the scope's configured name.
func (s *Scope) Name() string { return s.name }
