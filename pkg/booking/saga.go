package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// saga records undo steps for the mutations of one operation. If a later
// step fails, the recorded steps run in reverse order.
type saga struct {
	op     string
	logger *slog.Logger
	steps  []compensation
}

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

func (s *saga) onFailure(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{name: name, undo: undo})
}

// abort runs every compensation and returns cause joined with any undo failures.
// Compensations run even if the caller's context is already cancelled.
func (s *saga) abort(ctx context.Context, cause error) error {
	ctx = context.WithoutCancel(ctx)
	errs := []error{cause}
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if err := step.undo(ctx); err != nil {
			s.logger.Error("CRITICAL: compensation failed", "operation", s.op, "step", step.name, "error", err)
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.name, err))
		}
	}
	return errors.Join(errs...)
}
