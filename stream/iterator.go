package stream

import (
	"context"
	"sync/atomic"

	"github.com/kallebelins/mvp24hours-go/errors"
)

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// FromSlice creates an iterator over a slice of values.
func FromSlice[T any](items []T) Iterator[T] {
	return &sliceIter[T]{items: items}
}

// FromChan creates an iterator that pulls from a channel until it is
// closed. The caller retains ownership of the channel.
func FromChan[T any](ch <-chan T) Iterator[T] {
	return &chanSourceIter[T]{ch: ch}
}

// Collect pulls every remaining value from the iterator into a slice.
// On error it returns the values collected so far alongside the error.
func Collect[T any](ctx context.Context, iter Iterator[T]) ([]T, error) {
	var out []T
	for {
		val, ok, err := iter.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, val)
	}
}

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type chanSourceIter[T any] struct {
	ch <-chan T
}

func (it *chanSourceIter[T]) Next(ctx context.Context) (T, bool, error) {
	select {
	case val, open := <-it.ch:
		if !open {
			var zero T
			return zero, false, nil
		}
		return val, true, nil
	case <-ctx.Done():
		var zero T
		return zero, false, errors.Canceled(ctx.Err())
	}
}

func (it *chanSourceIter[T]) Close() error { return nil }

// result carries a value or error through a stage channel.
type result[T any] struct {
	val T
	ok  bool
	err error
}

// channelIter reads results from the last stage's output channel. Closing
// it cancels the run context, which unblocks every stage goroutine.
type channelIter[T any] struct {
	ch     <-chan result[T]
	cancel context.CancelFunc
	closer func() error
	closed atomic.Bool
}

func (it *channelIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.closed.Load() {
		return zero, false, errors.StreamClosed()
	}
	select {
	case r, open := <-it.ch:
		if !open {
			return zero, false, nil
		}
		if r.err != nil {
			it.cancel()
			return zero, false, r.err
		}
		return r.val, true, nil
	case <-ctx.Done():
		return zero, false, errors.Canceled(ctx.Err())
	}
}

func (it *channelIter[T]) Close() error {
	it.closed.Store(true)
	it.cancel()
	if it.closer != nil {
		return it.closer()
	}
	return nil
}
