package usecase

import (
	"context"
	"errors"
	"fmt"

	"supplypool/domain"
)

// rollback keeps the compensations of the external steps an operation already performed.
type rollback struct {
	steps []rollbackStep
}

type rollbackStep struct {
	name string
	undo func(ctx context.Context) error
}

func (rb *rollback) push(name string, undo func(ctx context.Context) error) {
	rb.steps = append(rb.steps, rollbackStep{name: name, undo: undo})
}

// run undoes the registered steps in reverse order and returns cause, joined with every
// compensation that failed.
func (rb *rollback) run(ctx context.Context, cause error) error {
	var failures []error
	for i := len(rb.steps) - 1; i >= 0; i-- {
		step := rb.steps[i]
		if err := step.undo(ctx); err != nil {
			failures = append(failures, fmt.Errorf("%w: %v: %w", domain.ErrorRollbackFailed, step.name, err))
		}
	}
	rb.steps = nil
	if len(failures) == 0 {
		return cause
	}
	return errors.Join(append([]error{cause}, failures...)...)
}
