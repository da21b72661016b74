package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kallebelins/mvp24hours-go/errors"
	"github.com/kallebelins/mvp24hours-go/pipe"
)

// Factory builds an operation instance. Called once per resolution; a
// factory that wants singleton behavior returns the same instance each
// time.
type Factory func(ctx context.Context) (pipe.Operation, error)

// Registry is a named operation factory table, safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under a name. Registering the same name twice
// is an error.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return errors.InvalidInput("name", "is required")
	}
	if factory == nil {
		return errors.InvalidInput("factory", "is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return errors.AlreadyRegistered(name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister is Register that panics on error. Intended for package
// init-time wiring where a duplicate name is a programming error.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(fmt.Sprintf("registry: register %s: %v", name, err))
	}
}

// RegisterInstance registers an already-built operation under a name.
func (r *Registry) RegisterInstance(name string, op pipe.Operation) error {
	if op == nil {
		return errors.InvalidInput("operation", "is required")
	}
	return r.Register(name, func(context.Context) (pipe.Operation, error) {
		return op, nil
	})
}

// Resolve builds the operation registered under a name.
func (r *Registry) Resolve(ctx context.Context, name string) (pipe.Operation, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.ResolveFailed(name, nil)
	}

	op, err := factory(ctx)
	if err != nil {
		return nil, errors.ResolveFailed(name, err)
	}
	if op == nil {
		return nil, errors.ResolveFailed(name, fmt.Errorf("factory returned nil"))
	}
	return op, nil
}

// Contains reports whether a name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver adapts the registry to the orchestrator's resolver hook.
func (r *Registry) Resolver() pipe.Resolver {
	return r.Resolve
}

// ResolveAs resolves a named operation and asserts its concrete type.
func ResolveAs[T pipe.Operation](ctx context.Context, r *Registry, name string) (T, error) {
	var zero T
	op, err := r.Resolve(ctx, name)
	if err != nil {
		return zero, err
	}
	typed, ok := op.(T)
	if !ok {
		return zero, errors.ResolveFailed(name, fmt.Errorf("operation is %T, not %T", op, zero))
	}
	return typed, nil
}

// --- Default registry ---

var defaultRegistry = New()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds a factory to the default registry.
func Register(name string, factory Factory) error {
	return defaultRegistry.Register(name, factory)
}

// MustRegister adds a factory to the default registry, panicking on error.
func MustRegister(name string, factory Factory) {
	defaultRegistry.MustRegister(name, factory)
}

// Resolve builds an operation from the default registry.
func Resolve(ctx context.Context, name string) (pipe.Operation, error) {
	return defaultRegistry.Resolve(ctx, name)
}
