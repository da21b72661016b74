// Package telemetry wires the engine's observer hooks to OpenTelemetry
// tracing and metrics, plus a structured-log observer for environments
// without a collector.
//
//	tp, _ := telemetry.InitTracer(ctx, telemetry.DefaultTracerConfig("orders"))
//	defer tp.Shutdown(ctx)
//
//	obs := telemetry.NewMultiObserver(
//		telemetry.NewTraceObserver("orders"),
//		telemetry.NewLogObserver(logger.WithComponent("pipe")),
//	)
//	p := pipe.New(pipe.WithObserver(obs))
//
// The engine core never imports this package; it only sees pipe.Observer.
package telemetry
