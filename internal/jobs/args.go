// Package jobs provides River job workers for background signal processing.
package jobs

import "github.com/google/uuid"

// SignalRecalcArgs contains the arguments for a signal recalculation job.
// Enqueued by the recalculate_signals action; the worker re-runs the full
// cycle aggregation with force enabled.
type SignalRecalcArgs struct {
	CycleID   uuid.UUID `json:"cycle_id"`
	CompanyID uuid.UUID `json:"company_id"`
}

// Kind returns the job type identifier for River.
func (SignalRecalcArgs) Kind() string { return "signal_recalc" }
