// Package pipe provides a composable operation-pipeline execution engine:
// an ordered sequence of business operations executed against a shared
// mutable message, with interception points, fault propagation, best-effort
// rollback, and structural composition operators.
//
// The engine is agnostic to the operations plugged into it. An operation
// implements the Operation interface; expected business failures are recorded
// on the message as Error results, while a non-nil error returned from
// Execute is treated as an unhandled failure and captured by the
// orchestrator.
//
// # Building a pipeline
//
//	p := pipe.New(pipe.WithBreakOnFault(true)).
//	    Add(validate, persist).
//	    AddAction(func(ctx context.Context, msg *pipe.Message) error {
//	        msg.AddInfo("notified")
//	        return nil
//	    })
//	msg, err := p.Execute(ctx, nil)
//
// # Composition
//
// ParallelGroup, Branch, and Scope all implement Operation, so they nest
// inside one another or inside a parent pipeline without special-casing:
//
//	p.Add(pipe.NewParallelGroup(pipe.WithMaxParallel(4)).Add(a, b, c))
//	p.Add(pipe.NewBranch().
//	    When("premium", isPremium, applyDiscount).
//	    Otherwise(standardFlow))
//	p.Add(pipe.NewScope("billing", charge, invoice))
//
// A Pipeline instance is not safe for concurrent overlapping Execute calls;
// serialize calls per instance or use one instance per logical run.
package pipe
