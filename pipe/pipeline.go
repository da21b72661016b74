package pipe

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/kallebelins/mvp24hours-go/errors"
	"github.com/kallebelins/mvp24hours-go/logger"
)

// Pipeline owns an ordered operation list, the interceptor registry, and the
// execution algorithm. Run-scoped state (the executed list, one-shot firing
// flags) is reset at the start of each Execute call and is not isolated
// across concurrent invocations; callers must serialize calls per instance.
type Pipeline struct {
	operations   []Operation
	executed     []Operation
	interceptors interceptorSet

	breakOnFault         bool
	forceRollbackOnFault bool
	propagateError       bool

	observer Observer
	log      *logger.Logger
	resolver Resolver
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithBreakOnFault stops the main sequence once the message becomes faulty.
func WithBreakOnFault() Option {
	return func(p *Pipeline) { p.breakOnFault = true }
}

// WithForceRollbackOnFault triggers reverse-order compensation after a
// faulty run.
func WithForceRollbackOnFault() Option {
	return func(p *Pipeline) { p.forceRollbackOnFault = true }
}

// WithPropagateError makes Execute return the last captured failure when the
// run ends faulty. Without it a faulty run returns the message and a nil
// error; the fault trail lives on the message.
func WithPropagateError() Option {
	return func(p *Pipeline) { p.propagateError = true }
}

// WithObserver injects the telemetry sink invoked at phase transitions.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithLogger injects the structured logger used by the engine.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithResolver injects the external resolver consumed by AddResolved.
func WithResolver(r Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// New creates a pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		interceptors: newInterceptorSet(),
		observer:     NopObserver{},
		log:          logger.WithComponent("pipe"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Add appends operations to the main sequence in order.
func (p *Pipeline) Add(ops ...Operation) *Pipeline {
	p.operations = append(p.operations, ops...)
	return p
}

// AddAction appends a plain function as an ad-hoc, non-required operation.
func (p *Pipeline) AddAction(fn func(ctx context.Context, msg *Message) error) *Pipeline {
	return p.Add(Action(fn))
}

// AddResolved appends an operation resolved by name through the injected
// resolver on first use. Resolution failures surface as operation failures.
func (p *Pipeline) AddResolved(name string) *Pipeline {
	return p.Add(&resolvedOperation{name: name, pipeline: p})
}

// Operations returns the main sequence in insertion order.
func (p *Pipeline) Operations() []Operation {
	out := make([]Operation, len(p.operations))
	copy(out, p.operations)
	return out
}

// Executed returns the operations that completed without fault during the
// most recent run, in execution order.
func (p *Pipeline) Executed() []Operation {
	out := make([]Operation, len(p.executed))
	copy(out, p.executed)
	return out
}

// Intercept registers an operation interceptor at a fixed point.
func (p *Pipeline) Intercept(point Point, op Operation) *Pipeline {
	p.interceptors.operations[point] = append(p.interceptors.operations[point], op)
	return p
}

// InterceptBefore registers a predicate-gated interceptor that runs before
// each main operation whose message matches the predicate.
func (p *Pipeline) InterceptBefore(when Predicate, op Operation) *Pipeline {
	p.interceptors.condPre = append(p.interceptors.condPre, conditionalOperation{when: when, op: op})
	return p
}

// InterceptAfter registers a predicate-gated interceptor that runs after
// each successful main operation whose message matches the predicate.
func (p *Pipeline) InterceptAfter(when Predicate, op Operation) *Pipeline {
	p.interceptors.condPost = append(p.interceptors.condPost, conditionalOperation{when: when, op: op})
	return p
}

// On registers an event handler at a fixed point. Handlers run on their own
// goroutines and are awaited before Execute returns.
func (p *Pipeline) On(point Point, h Handler) *Pipeline {
	p.interceptors.handlers[point] = append(p.interceptors.handlers[point], h)
	return p
}

// OnBefore registers a predicate-gated event handler fired before each main
// operation whose message matches the predicate.
func (p *Pipeline) OnBefore(when Predicate, h Handler) *Pipeline {
	p.interceptors.condPreH = append(p.interceptors.condPreH, conditionalHandler{when: when, h: h})
	return p
}

// OnAfter registers a predicate-gated event handler fired after each
// successful main operation whose message matches the predicate.
func (p *Pipeline) OnAfter(when Predicate, h Handler) *Pipeline {
	p.interceptors.condPostH = append(p.interceptors.condPostH, conditionalHandler{when: when, h: h})
	return p
}

// runState carries per-run bookkeeping: tracked event-handler goroutines and
// the one-shot firing flags for the Locked and Faulty points.
type runState struct {
	handlers    sync.WaitGroup
	firedLocked bool
	firedFaulty bool
}

// Execute threads the message through the main sequence, firing interceptors
// at the fixed points. A nil msg gets a default-constructed message. The
// message is always returned; the error is non-nil only on cancellation or,
// with PropagateError, when the run ended faulty.
func (p *Pipeline) Execute(ctx context.Context, msg *Message) (*Message, error) {
	if msg == nil {
		msg = NewMessage()
	}
	p.executed = p.executed[:0]
	rt := &runState{}

	start := time.Now()
	p.observer.RunStart(ctx, msg)

	runErr := p.run(ctx, rt, msg)

	if runErr == nil && msg.IsFaulty() && p.forceRollbackOnFault {
		p.rollback(ctx, msg)
	}

	rt.handlers.Wait()
	p.observer.RunEnd(ctx, msg, time.Since(start))

	if runErr != nil {
		return msg, runErr
	}
	if msg.IsFaulty() && p.propagateError {
		if failure := msg.Failure(); failure != nil {
			return msg, failure
		}
	}
	return msg, nil
}

// run folds over the main sequence per the execution algorithm. It returns
// a non-nil error only for cooperative cancellation.
func (p *Pipeline) run(ctx context.Context, rt *runState, msg *Message) error {
	p.fireHandlers(ctx, rt, msg, p.interceptors.handlers[FirstOperation])
	p.fireOperations(ctx, msg, p.interceptors.operations[FirstOperation])

	for _, op := range p.operations {
		if err := ctx.Err(); err != nil {
			return errors.Canceled(err)
		}
		if msg.IsFaulty() && p.breakOnFault {
			p.log.Debug("fault observed, short-circuiting remaining operations",
				logger.Fields(logger.FieldToken, msg.Token()))
			break
		}
		name := operationName(op)
		if msg.IsLocked() && !op.Required() {
			p.log.Debug("message locked, skipping operation",
				logger.Fields(logger.FieldOperation, name, logger.FieldToken, msg.Token()))
			continue
		}

		wasLocked := msg.IsLocked()
		wasFaulty := msg.IsFaulty()

		p.fireConditionalHandlers(ctx, rt, msg, p.interceptors.condPreH)
		p.fireConditional(ctx, msg, p.interceptors.condPre)
		p.fireOperations(ctx, msg, p.interceptors.operations[PreOperation])

		p.observer.OperationStart(ctx, name, msg)
		opStart := time.Now()
		err := safeExecute(ctx, op, msg)
		p.observer.OperationEnd(ctx, name, msg, time.Since(opStart), err)

		if err != nil {
			if isCancellation(err) {
				return errors.Canceled(err)
			}
			msg.AddError(errors.Innermost(err))
			msg.setFailure(err)
			p.observer.Failure(ctx, name, msg, err)
			p.log.Error("operation failed", logger.ErrorFields(name, err))
			continue
		}

		p.fireOperations(ctx, msg, p.interceptors.operations[PostOperation])
		p.fireConditional(ctx, msg, p.interceptors.condPost)
		p.fireConditionalHandlers(ctx, rt, msg, p.interceptors.condPostH)

		switch {
		case !wasLocked && msg.IsLocked():
			p.fireOnce(ctx, rt, msg, Locked, &rt.firedLocked)
		case !wasFaulty && msg.IsFaulty():
			p.fireOnce(ctx, rt, msg, Faulty, &rt.firedFaulty)
		case msg.IsFaulty():
			// Completed after the fault occurred; never compensated.
		default:
			p.executed = append(p.executed, op)
		}
	}

	if !msg.IsFaulty() {
		p.fireHandlers(ctx, rt, msg, p.interceptors.handlers[LastOperation])
		p.fireOperations(ctx, msg, p.interceptors.operations[LastOperation])
	}
	return nil
}

// rollback compensates executed operations in reverse order. Failures are
// logged and never halt the remaining steps.
func (p *Pipeline) rollback(ctx context.Context, msg *Message) {
	p.observer.RollbackStart(ctx, msg)
	defer p.observer.RollbackEnd(ctx, msg)

	for i := len(p.executed) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			p.log.Warn("rollback canceled",
				logger.Fields(logger.FieldToken, msg.Token()))
			return
		}
		op := p.executed[i]
		if err := safeRollback(ctx, op, msg); err != nil {
			name := operationName(op)
			p.log.Error("rollback step failed",
				logger.ErrorFields(name, errors.RollbackFailed(name, err)))
		}
	}
}

func (p *Pipeline) fireOperations(ctx context.Context, msg *Message, ops []Operation) {
	for _, op := range ops {
		if err := safeExecute(ctx, op, msg); err != nil {
			p.log.Error("interceptor failed", logger.ErrorFields(operationName(op), err))
		}
	}
}

func (p *Pipeline) fireConditional(ctx context.Context, msg *Message, conds []conditionalOperation) {
	for _, c := range conds {
		if c.when(msg) {
			if err := safeExecute(ctx, c.op, msg); err != nil {
				p.log.Error("conditional interceptor failed", logger.ErrorFields(operationName(c.op), err))
			}
		}
	}
}

func (p *Pipeline) fireHandlers(ctx context.Context, rt *runState, msg *Message, hs []Handler) {
	for _, h := range hs {
		rt.handlers.Add(1)
		go func(h Handler) {
			defer rt.handlers.Done()
			defer func() {
				if r := recover(); r != nil {
					p.log.Error("event handler panicked",
						logger.Fields(logger.FieldError, r))
				}
			}()
			h(ctx, msg)
		}(h)
	}
}

func (p *Pipeline) fireConditionalHandlers(ctx context.Context, rt *runState, msg *Message, conds []conditionalHandler) {
	for _, c := range conds {
		if c.when(msg) {
			p.fireHandlers(ctx, rt, msg, []Handler{c.h})
		}
	}
}

// fireOnce arms a one-shot point the first time its condition is observed.
func (p *Pipeline) fireOnce(ctx context.Context, rt *runState, msg *Message, point Point, fired *bool) {
	if *fired {
		return
	}
	*fired = true
	p.fireHandlers(ctx, rt, msg, p.interceptors.handlers[point])
	p.fireOperations(ctx, msg, p.interceptors.operations[point])
}

// isCancellation reports whether an operation error represents cooperative
// cancellation rather than an operation failure.
func isCancellation(err error) bool {
	return stderrors.Is(err, context.Canceled) ||
		stderrors.Is(err, context.DeadlineExceeded) ||
		errors.IsCode(err, errors.ErrCodeCanceled)
}

// operationPanicError bridges a recovered panic into an engine error.
func operationPanicError(name string, recovered any) error {
	return errors.OperationPanic(name, recovered)
}
