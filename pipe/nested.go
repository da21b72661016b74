package pipe

import (
	"context"

	"github.com/kallebelins/mvp24hours-go/errors"
	"github.com/kallebelins/mvp24hours-go/logger"
)

// runNested folds over an operation list as a single logical step at the
// parent's granularity: same mechanics as the main loop, interceptors
// suppressed. It returns the operations that completed without fault, for
// the composition operator's own rollback.
func runNested(ctx context.Context, ops []Operation, msg *Message) ([]Operation, error) {
	var executed []Operation
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return executed, errors.Canceled(err)
		}
		if msg.IsFaulty() {
			break
		}
		if msg.IsLocked() && !op.Required() {
			continue
		}

		wasLocked := msg.IsLocked()

		if err := safeExecute(ctx, op, msg); err != nil {
			if isCancellation(err) {
				return executed, errors.Canceled(err)
			}
			msg.AddError(errors.Innermost(err))
			msg.setFailure(err)
			continue
		}

		if (!wasLocked && msg.IsLocked()) || msg.IsFaulty() {
			// Just locked, or faulted via the message rather than the
			// return value; either way never compensated.
			continue
		}
		executed = append(executed, op)
	}
	return executed, nil
}

// rollbackNested compensates a nested unit's executed operations in reverse
// order. Failures are logged and never halt the remaining steps.
func rollbackNested(ctx context.Context, executed []Operation, msg *Message) {
	log := logger.WithComponent("pipe")
	for i := len(executed) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return
		}
		op := executed[i]
		if err := safeRollback(ctx, op, msg); err != nil {
			name := operationName(op)
			log.Error("nested rollback step failed",
				logger.ErrorFields(name, errors.RollbackFailed(name, err)))
		}
	}
}
