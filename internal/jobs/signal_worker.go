package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/hrplus/talent-hub/internal/apperrors"
	"github.com/hrplus/talent-hub/internal/models"
)

// CycleProcessor recomputes talent signals for a review cycle. The signals
// service implements it; the worker stays decoupled from the concrete type.
type CycleProcessor interface {
	ProcessCycle(ctx context.Context, companyID, cycleID uuid.UUID, force bool) (*models.ProcessCycleResult, error)
}

// SignalWorker processes signal recalculation jobs.
type SignalWorker struct {
	river.WorkerDefaults[SignalRecalcArgs]

	processor CycleProcessor
}

// NewSignalWorker creates a new signal recalculation worker.
func NewSignalWorker(processor CycleProcessor) *SignalWorker {
	return &SignalWorker{processor: processor}
}

// Work recomputes a cycle's signals with force enabled so an already
// completed cycle is reprocessed into a new snapshot generation.
func (w *SignalWorker) Work(ctx context.Context, job *river.Job[SignalRecalcArgs]) error {
	args := job.Args

	slog.Debug("processing signal recalc job",
		"job_id", job.ID,
		"cycle_id", args.CycleID,
		"company_id", args.CompanyID,
	)

	result, err := w.processor.ProcessCycle(ctx, args.CompanyID, args.CycleID, true)
	if err != nil {
		var notFoundErr *apperrors.NotFoundError
		if errors.As(err, &notFoundErr) {
			slog.Info("cycle deleted before recalc job completed",
				"job_id", job.ID,
				"cycle_id", args.CycleID,
			)
			// Mark the job complete: a missing cycle won't be fixed by retry.
			return nil
		}

		slog.Error("failed to recalculate signals",
			"job_id", job.ID,
			"cycle_id", args.CycleID,
			"error", err,
		)
		return err // River will retry based on configuration
	}

	slog.Info("signal recalculation completed",
		"job_id", job.ID,
		"cycle_id", args.CycleID,
		"employees_processed", result.Processed,
	)

	return nil
}
