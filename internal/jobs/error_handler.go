package jobs

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// ErrorHandler logs failed and panicked background jobs. River's default
// retry policy stays in effect for both.
type ErrorHandler struct{}

// HandleError logs a job error with enough context to find the cycle it was
// recalculating.
func (h *ErrorHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	slog.Error("background job failed",
		"kind", job.Kind,
		"job_id", job.ID,
		"args", string(job.EncodedArgs),
		"attempt", job.Attempt,
		"max_attempts", job.MaxAttempts,
		"error", err,
	)

	return nil
}

// HandlePanic logs a job panic with its stack trace.
func (h *ErrorHandler) HandlePanic(ctx context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	slog.Error("background job panicked",
		"kind", job.Kind,
		"job_id", job.ID,
		"args", string(job.EncodedArgs),
		"attempt", job.Attempt,
		"panic_value", panicVal,
		"stack_trace", trace,
	)

	return nil
}
