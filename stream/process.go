package stream

import (
	"context"
	"sync"
)

// Process runs the pipeline over a source, preserving input order. Each
// stage runs on its own goroutine; stage boundaries are bounded channels
// sized by the pipeline's capacity, so the source is consumed no faster
// than the slowest stage drains.
//
// The returned iterator is lazy. Closing it cancels the run and releases
// every stage goroutine, whether or not the source was exhausted.
func Process[I, O any](ctx context.Context, p *Pipeline[I, O], src Iterator[I]) Iterator[O] {
	runCtx, cancel := context.WithCancel(ctx)
	in := make(chan result[I], p.capacity)

	go func() {
		defer close(in)
		for {
			val, ok, err := src.Next(runCtx)
			if err != nil {
				select {
				case in <- result[I]{err: err}:
				case <-runCtx.Done():
				}
				return
			}
			if !ok {
				return
			}
			select {
			case in <- result[I]{val: val, ok: true}:
			case <-runCtx.Done():
				return
			}
		}
	}()

	return &channelIter[O]{
		ch:     p.wire(runCtx, in),
		cancel: cancel,
		closer: src.Close,
	}
}

// ProcessParallel runs the pipeline over a source with a pool of workers,
// each pushing items through every stage sequentially. Output ordering is
// NOT preserved; use Process when order matters.
//
// The input and output queues are bounded by the pipeline's capacity
// (at least one slot per worker, so a finishing worker never deadlocks on
// a cancelled consumer).
func ProcessParallel[I, O any](ctx context.Context, p *Pipeline[I, O], src Iterator[I], workers int) Iterator[O] {
	if workers <= 0 {
		workers = 1
	}
	runCtx, cancel := context.WithCancel(ctx)

	queue := p.capacity
	if queue < workers {
		queue = workers
	}
	in := make(chan result[I], queue)
	out := make(chan result[O], queue)

	go func() {
		defer close(in)
		for {
			val, ok, err := src.Next(runCtx)
			if err != nil {
				select {
				case in <- result[I]{err: err}:
				case <-runCtx.Done():
				}
				return
			}
			if !ok {
				return
			}
			select {
			case in <- result[I]{val: val, ok: true}:
			case <-runCtx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				var r result[I]
				var open bool
				select {
				case r, open = <-in:
					if !open {
						return
					}
				case <-runCtx.Done():
					return
				}
				if r.err != nil {
					select {
					case out <- result[O]{err: r.err}:
					case <-runCtx.Done():
					}
					cancel()
					return
				}
				val, err := p.one(runCtx, r.val)
				if err != nil {
					select {
					case out <- result[O]{err: err}:
					case <-runCtx.Done():
					}
					cancel()
					return
				}
				select {
				case out <- result[O]{val: val, ok: true}:
				case <-runCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return &channelIter[O]{
		ch:     out,
		cancel: cancel,
		closer: src.Close,
	}
}
