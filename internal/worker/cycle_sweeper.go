// Package worker provides background workers for the talent hub.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hrplus/talent-hub/internal/models"
)

// PendingCyclesRepository defines the interface for finding unprocessed cycles.
type PendingCyclesRepository interface {
	ListPendingCompleted(ctx context.Context, limit int) ([]models.ReviewCycle, error)
}

// CycleProcessor defines the interface for running signal aggregation on a cycle.
type CycleProcessor interface {
	ProcessCycle(ctx context.Context, companyID, cycleID uuid.UUID, force bool) (*models.ProcessCycleResult, error)
}

// CycleSweeper is a background worker that periodically finds completed
// review cycles still awaiting signal processing and runs them. It covers
// cycles closed while the service was down or whose process_cycle call was
// never made.
type CycleSweeper struct {
	repo         PendingCyclesRepository
	processor    CycleProcessor
	pollInterval time.Duration
	batchSize    int
}

// NewCycleSweeper creates a new cycle sweeper worker.
func NewCycleSweeper(
	repo PendingCyclesRepository,
	processor CycleProcessor,
	pollInterval time.Duration,
	batchSize int,
) *CycleSweeper {
	if pollInterval <= 0 {
		pollInterval = 1 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 5
	}

	return &CycleSweeper{
		repo:         repo,
		processor:    processor,
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

// Start begins the background worker loop. It runs until the context is cancelled.
func (w *CycleSweeper) Start(ctx context.Context) {
	slog.Info("cycle sweeper started",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
	)

	// Run immediately on startup
	w.runOnce(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("cycle sweeper stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce processes one batch of pending cycles.
func (w *CycleSweeper) runOnce(ctx context.Context) {
	cycles, err := w.repo.ListPendingCompleted(ctx, w.batchSize)
	if err != nil {
		slog.Error("failed to list pending cycles", "error", err)
		return
	}

	if len(cycles) == 0 {
		slog.Debug("no pending cycles found")
		return
	}

	slog.Info("found pending cycles", "count", len(cycles))

	for _, cycle := range cycles {
		logger := slog.With("cycle_id", cycle.ID, "company_id", cycle.CompanyID)

		result, err := w.processor.ProcessCycle(ctx, cycle.CompanyID, cycle.ID, false)
		if err != nil {
			logger.Error("failed to process pending cycle", "error", err)
			continue
		}

		logger.Info("pending cycle processed", "employees_processed", result.Processed)
	}
}
