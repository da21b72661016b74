package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kallebelins/mvp24hours-go/logger"
	"github.com/kallebelins/mvp24hours-go/pipe"
)

// TraceObserver emits one span per pipeline run, a child span per
// operation, and a span covering the rollback pass. Spans are correlated
// by the message token, so a single observer instance can watch any
// number of concurrent runs.
type TraceObserver struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]spanEntry
}

type spanEntry struct {
	ctx  context.Context
	span trace.Span
}

// NewTraceObserver creates a trace observer with a named tracer.
func NewTraceObserver(name string) *TraceObserver {
	if name == "" {
		name = defaultTracerName
	}
	return &TraceObserver{
		tracer: Tracer(name),
		spans:  make(map[string]spanEntry),
	}
}

func (o *TraceObserver) store(key string, ctx context.Context, span trace.Span) {
	o.mu.Lock()
	o.spans[key] = spanEntry{ctx: ctx, span: span}
	o.mu.Unlock()
}

func (o *TraceObserver) take(key string) (spanEntry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.spans[key]
	if ok {
		delete(o.spans, key)
	}
	return entry, ok
}

func (o *TraceObserver) peek(key string) (spanEntry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.spans[key]
	return entry, ok
}

func (o *TraceObserver) RunStart(ctx context.Context, msg *pipe.Message) {
	token := msg.Token()
	spanCtx, span := o.tracer.Start(ctx, SpanPipelineRun,
		trace.WithAttributes(attribute.String(AttrPipelineToken, token)),
	)
	o.store(token, spanCtx, span)
}

func (o *TraceObserver) RunEnd(ctx context.Context, msg *pipe.Message, elapsed time.Duration) {
	token := msg.Token()
	entry, ok := o.take(token)
	if !ok {
		return
	}
	entry.span.SetAttributes(
		attribute.Bool(AttrFaulty, msg.IsFaulty()),
		attribute.Bool(AttrLocked, msg.IsLocked()),
		attribute.Int64(AttrDurationMs, elapsed.Milliseconds()),
	)
	if msg.IsFaulty() {
		entry.span.SetStatus(codes.Error, "pipeline faulty")
	}
	entry.span.End()
}

func (o *TraceObserver) OperationStart(ctx context.Context, operation string, msg *pipe.Message) {
	token := msg.Token()
	parent := ctx
	if entry, ok := o.peek(token); ok {
		parent = entry.ctx
	}
	spanCtx, span := o.tracer.Start(parent, SpanOperation,
		trace.WithAttributes(attribute.String(AttrOperationName, operation)),
	)
	o.store(token+"/"+operation, spanCtx, span)
}

func (o *TraceObserver) OperationEnd(ctx context.Context, operation string, msg *pipe.Message, elapsed time.Duration, err error) {
	entry, ok := o.take(msg.Token() + "/" + operation)
	if !ok {
		return
	}
	entry.span.SetAttributes(attribute.Int64(AttrDurationMs, elapsed.Milliseconds()))
	if err != nil {
		entry.span.RecordError(err)
		entry.span.SetStatus(codes.Error, err.Error())
	}
	entry.span.End()
}

func (o *TraceObserver) Failure(ctx context.Context, operation string, msg *pipe.Message, err error) {
	if entry, ok := o.peek(msg.Token()); ok {
		entry.span.RecordError(err)
	}
}

func (o *TraceObserver) RollbackStart(ctx context.Context, msg *pipe.Message) {
	token := msg.Token()
	parent := ctx
	if entry, ok := o.peek(token); ok {
		parent = entry.ctx
	}
	spanCtx, span := o.tracer.Start(parent, SpanRollback)
	o.store(token+"/rollback", spanCtx, span)
}

func (o *TraceObserver) RollbackEnd(ctx context.Context, msg *pipe.Message) {
	if entry, ok := o.take(msg.Token() + "/rollback"); ok {
		entry.span.End()
	}
}

// MetricsObserver records run, operation, rollback, and fault counts.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates a metrics observer backed by instruments on
// the named meter.
func NewMetricsObserver(meterName string) (*MetricsObserver, error) {
	metrics, err := NewMetrics(Meter(meterName))
	if err != nil {
		return nil, err
	}
	return &MetricsObserver{metrics: metrics}, nil
}

func (o *MetricsObserver) RunStart(ctx context.Context, msg *pipe.Message) {
	o.metrics.RecordRunStart(ctx)
}

func (o *MetricsObserver) RunEnd(ctx context.Context, msg *pipe.Message, elapsed time.Duration) {
	status := "success"
	if msg.IsFaulty() {
		status = "faulty"
	}
	o.metrics.RecordRunEnd(ctx, status, elapsed)
}

func (o *MetricsObserver) OperationStart(ctx context.Context, operation string, msg *pipe.Message) {
}

func (o *MetricsObserver) OperationEnd(ctx context.Context, operation string, msg *pipe.Message, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	o.metrics.RecordOperation(ctx, operation, status, elapsed)
}

func (o *MetricsObserver) Failure(ctx context.Context, operation string, msg *pipe.Message, err error) {
	o.metrics.RecordFault(ctx, operation)
}

func (o *MetricsObserver) RollbackStart(ctx context.Context, msg *pipe.Message) {
	o.metrics.RecordRollback(ctx)
}

func (o *MetricsObserver) RollbackEnd(ctx context.Context, msg *pipe.Message) {}

// LogObserver writes phase transitions to the structured logger. Useful
// where no collector is available, and as the default debugging surface.
type LogObserver struct {
	log *logger.Logger
}

// NewLogObserver creates a log observer. A nil logger uses the global one
// tagged with the pipe component.
func NewLogObserver(log *logger.Logger) *LogObserver {
	if log == nil {
		log = logger.WithComponent("pipe")
	}
	return &LogObserver{log: log}
}

func (o *LogObserver) RunStart(ctx context.Context, msg *pipe.Message) {
	o.log.Debug("run started", logger.Fields(
		logger.FieldToken, msg.Token(),
	))
}

func (o *LogObserver) RunEnd(ctx context.Context, msg *pipe.Message, elapsed time.Duration) {
	o.log.Info("run finished", logger.Fields(
		logger.FieldToken, msg.Token(),
		logger.FieldStatus, runStatus(msg),
		logger.FieldDuration, elapsed.Milliseconds(),
	))
}

func (o *LogObserver) OperationStart(ctx context.Context, operation string, msg *pipe.Message) {
	o.log.Trace("operation started", logger.Fields(
		logger.FieldOperation, operation,
		logger.FieldToken, msg.Token(),
	))
}

func (o *LogObserver) OperationEnd(ctx context.Context, operation string, msg *pipe.Message, elapsed time.Duration, err error) {
	if err != nil {
		o.log.WithError(err).Error("operation failed", logger.Fields(
			logger.FieldOperation, operation,
			logger.FieldDuration, elapsed.Milliseconds(),
		))
		return
	}
	o.log.Debug("operation finished", logger.Fields(
		logger.FieldOperation, operation,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
}

func (o *LogObserver) Failure(ctx context.Context, operation string, msg *pipe.Message, err error) {
	o.log.WithError(err).Error("failure captured", logger.Fields(
		logger.FieldOperation, operation,
		logger.FieldToken, msg.Token(),
	))
}

func (o *LogObserver) RollbackStart(ctx context.Context, msg *pipe.Message) {
	o.log.Info("rollback started", logger.Fields(
		logger.FieldToken, msg.Token(),
	))
}

func (o *LogObserver) RollbackEnd(ctx context.Context, msg *pipe.Message) {
	o.log.Info("rollback finished", logger.Fields(
		logger.FieldToken, msg.Token(),
	))
}

func runStatus(msg *pipe.Message) string {
	switch {
	case msg.IsFaulty():
		return "faulty"
	case msg.IsLocked():
		return "locked"
	default:
		return "success"
	}
}

// MultiObserver fans every event out to a list of observers, in order.
type MultiObserver struct {
	observers []pipe.Observer
}

// NewMultiObserver combines observers into one.
func NewMultiObserver(observers ...pipe.Observer) *MultiObserver {
	return &MultiObserver{observers: observers}
}

func (m *MultiObserver) RunStart(ctx context.Context, msg *pipe.Message) {
	for _, o := range m.observers {
		o.RunStart(ctx, msg)
	}
}

func (m *MultiObserver) RunEnd(ctx context.Context, msg *pipe.Message, elapsed time.Duration) {
	for _, o := range m.observers {
		o.RunEnd(ctx, msg, elapsed)
	}
}

func (m *MultiObserver) OperationStart(ctx context.Context, operation string, msg *pipe.Message) {
	for _, o := range m.observers {
		o.OperationStart(ctx, operation, msg)
	}
}

func (m *MultiObserver) OperationEnd(ctx context.Context, operation string, msg *pipe.Message, elapsed time.Duration, err error) {
	for _, o := range m.observers {
		o.OperationEnd(ctx, operation, msg, elapsed, err)
	}
}

func (m *MultiObserver) Failure(ctx context.Context, operation string, msg *pipe.Message, err error) {
	for _, o := range m.observers {
		o.Failure(ctx, operation, msg, err)
	}
}

func (m *MultiObserver) RollbackStart(ctx context.Context, msg *pipe.Message) {
	for _, o := range m.observers {
		o.RollbackStart(ctx, msg)
	}
}

func (m *MultiObserver) RollbackEnd(ctx context.Context, msg *pipe.Message) {
	for _, o := range m.observers {
		o.RollbackEnd(ctx, msg)
	}
}
