package stream

import (
	"context"

	pkgerrors "github.com/pkg/errors"

	"github.com/kallebelins/mvp24hours-go/errors"
)

// Stage transforms one value into the next. A stage must be safe for
// concurrent calls when used with ProcessParallel.
type Stage[I, O any] func(ctx context.Context, in I) (O, error)

// DefaultCapacity is the stage channel capacity when WithCapacity is not
// given. Zero means unbuffered: the producer blocks until the consumer is
// ready, which is the strictest backpressure setting.
const DefaultCapacity = 0

// Option configures a Pipeline at construction time.
type Option func(*settings)

type settings struct {
	capacity int
}

// WithCapacity sets the capacity of every stage boundary channel. Values
// below zero are treated as zero.
func WithCapacity(n int) Option {
	return func(s *settings) { s.capacity = n }
}

// Pipeline is a typed composition of stages from I to O. A Pipeline holds
// no runtime state; the same Pipeline can back any number of concurrent
// Process runs.
type Pipeline[I, O any] struct {
	capacity int
	stages   int

	one  func(ctx context.Context, in I) (O, error)
	wire func(ctx context.Context, in <-chan result[I]) <-chan result[O]
}

// New creates a single-stage pipeline.
func New[I, O any](stage Stage[I, O], opts ...Option) *Pipeline[I, O] {
	s := settings{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&s)
	}
	if s.capacity < 0 {
		s.capacity = 0
	}
	run := stageFunc(stage, 1)
	capacity := s.capacity
	return &Pipeline[I, O]{
		capacity: capacity,
		stages:   1,
		one:      run,
		wire: func(ctx context.Context, in <-chan result[I]) <-chan result[O] {
			return wireStage(ctx, in, run, capacity)
		},
	}
}

// Append extends a pipeline with one more stage, changing its output type.
// The original pipeline is not modified and remains usable.
func Append[I, M, O any](p *Pipeline[I, M], stage Stage[M, O]) *Pipeline[I, O] {
	idx := p.stages + 1
	run := stageFunc(stage, idx)
	prevOne, prevWire, capacity := p.one, p.wire, p.capacity
	return &Pipeline[I, O]{
		capacity: capacity,
		stages:   idx,
		one: func(ctx context.Context, in I) (O, error) {
			mid, err := prevOne(ctx, in)
			if err != nil {
				var zero O
				return zero, err
			}
			return run(ctx, mid)
		},
		wire: func(ctx context.Context, in <-chan result[I]) <-chan result[O] {
			return wireStage(ctx, prevWire(ctx, in), run, capacity)
		},
	}
}

// Stages returns the number of stages in the pipeline.
func (p *Pipeline[I, O]) Stages() int { return p.stages }

// ProcessOne pushes a single value through every stage sequentially on the
// calling goroutine, with no channels involved.
func (p *Pipeline[I, O]) ProcessOne(ctx context.Context, in I) (O, error) {
	if err := ctx.Err(); err != nil {
		var zero O
		return zero, errors.Canceled(err)
	}
	return p.one(ctx, in)
}

func stageFunc[I, O any](stage Stage[I, O], idx int) func(context.Context, I) (O, error) {
	return func(ctx context.Context, in I) (O, error) {
		out, err := stage(ctx, in)
		if err != nil {
			var zero O
			return zero, pkgerrors.Wrapf(err, "stage %d", idx)
		}
		return out, nil
	}
}

// wireStage spawns the stage goroutine: pull from in, transform, push to a
// bounded out channel. The first error ends the stream after it is
// forwarded downstream.
func wireStage[I, O any](ctx context.Context, in <-chan result[I], fn func(context.Context, I) (O, error), capacity int) <-chan result[O] {
	out := make(chan result[O], capacity)
	go func() {
		defer close(out)
		for {
			var r result[I]
			var open bool
			select {
			case r, open = <-in:
				if !open {
					return
				}
			case <-ctx.Done():
				return
			}
			if r.err != nil {
				select {
				case out <- result[O]{err: r.err}:
				case <-ctx.Done():
				}
				return
			}
			val, err := fn(ctx, r.val)
			if err != nil {
				select {
				case out <- result[O]{err: err}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case out <- result[O]{val: val, ok: true}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
