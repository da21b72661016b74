package pipe

import (
	"context"
	"fmt"
)

// Point identifies a fixed interception point relative to the main
// operation sequence.
type Point int

const (
	// FirstOperation fires once, before the main loop.
	FirstOperation Point = iota
	// PreOperation fires before every main operation.
	PreOperation
	// PostOperation fires after every successful main operation.
	PostOperation
	// LastOperation fires once after the loop, only on a non-faulty run.
	LastOperation
	// Locked fires at most once per run, when the lock is first observed.
	Locked
	// Faulty fires at most once per run, when the fault is first observed.
	Faulty
)

// String returns the canonical name of the interception point.
func (p Point) String() string {
	switch p {
	case FirstOperation:
		return "first-operation"
	case PreOperation:
		return "pre-operation"
	case PostOperation:
		return "post-operation"
	case LastOperation:
		return "last-operation"
	case Locked:
		return "locked"
	case Faulty:
		return "faulty"
	default:
		return fmt.Sprintf("point(%d)", int(p))
	}
}

// Predicate gates a conditional interceptor on the current message state.
type Predicate func(msg *Message) bool

// Handler is an event-handler interceptor. Handlers run on their own
// goroutines; the orchestrator tracks them and waits for completion before
// Execute returns. A handler panic is logged and never surfaces to the run.
type Handler func(ctx context.Context, msg *Message)

type conditionalOperation struct {
	when Predicate
	op   Operation
}

type conditionalHandler struct {
	when Predicate
	h    Handler
}

// interceptorSet is the pipeline's registration-time interceptor registry.
// It is never mutated during a run; one-shot semantics for the Locked and
// Faulty points are tracked with per-run fired flags instead.
type interceptorSet struct {
	operations map[Point][]Operation
	handlers   map[Point][]Handler
	condPre    []conditionalOperation
	condPost   []conditionalOperation
	condPreH   []conditionalHandler
	condPostH  []conditionalHandler
}

func newInterceptorSet() interceptorSet {
	return interceptorSet{
		operations: make(map[Point][]Operation),
		handlers:   make(map[Point][]Handler),
	}
}
