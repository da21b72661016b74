package pipe

import (
	"context"
	"fmt"
	"sync"
)

// recorder captures call order across operations, safe for parallel groups.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recorder) has(s string) bool {
	for _, c := range r.list() {
		if c == s {
			return true
		}
	}
	return false
}

// fakeOp is a scriptable Operation for tests.
type fakeOp struct {
	name     string
	required bool
	fail     error
	panics   bool
	lock     bool
	addErr   string
	rbErr    error
	rec      *recorder
}

func (f *fakeOp) Execute(ctx context.Context, msg *Message) error {
	if f.rec != nil {
		f.rec.add("exec:" + f.name)
	}
	if f.panics {
		panic("bad op " + f.name)
	}
	if f.fail != nil {
		return f.fail
	}
	if f.lock {
		msg.SetLock()
	}
	if f.addErr != "" {
		msg.AddError(f.addErr)
	}
	return nil
}

func (f *fakeOp) Rollback(ctx context.Context, msg *Message) error {
	if f.rec != nil {
		f.rec.add("rollback:" + f.name)
	}
	return f.rbErr
}

func (f *fakeOp) Required() bool { return f.required }

func (f *fakeOp) Name() string { return f.name }

func newFakeOp(name string, rec *recorder) *fakeOp {
	return &fakeOp{name: name, rec: rec}
}

func strSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func executedNames(ops []Operation) []string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = operationName(op)
	}
	return names
}

var errBoom = fmt.Errorf("boom")
