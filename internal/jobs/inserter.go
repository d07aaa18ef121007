package jobs

import (
	"context"
)

// JobInserter is an interface for inserting jobs into the queue.
// This allows services to enqueue jobs without knowing about River directly.
type JobInserter interface {
	// InsertSignalRecalcJob enqueues a signal recalculation job.
	// Returns an error if the job could not be inserted.
	InsertSignalRecalcJob(ctx context.Context, args SignalRecalcArgs) error
}
