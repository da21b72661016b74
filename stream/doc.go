// Package stream provides a typed, channel-backed streaming pipeline.
//
// A Pipeline is a composition of stages, each a pure transform from one
// value type to the next. Stages are connected by bounded channels, so a
// slow consumer exerts backpressure on the producer instead of letting
// work pile up.
//
//	p := stream.New(parse)
//	enriched := stream.Append(p, enrich)
//
//	out := stream.Process(ctx, enriched, stream.FromSlice(lines))
//	defer out.Close()
//	records, err := stream.Collect(ctx, out)
//
// Process preserves input order with one goroutine per stage.
// ProcessParallel trades ordering for throughput by fanning items out to a
// worker pool. Both return lazy iterators: no work happens until values
// are pulled, and closing the iterator cancels every stage goroutine.
package stream
