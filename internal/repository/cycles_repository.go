package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrplus/talent-hub/internal/apperrors"
	"github.com/hrplus/talent-hub/internal/models"
)

// CyclesRepository handles data access for review cycles.
type CyclesRepository struct {
	db *pgxpool.Pool
}

// NewCyclesRepository creates a new review cycles repository.
func NewCyclesRepository(db *pgxpool.Pool) *CyclesRepository {
	return &CyclesRepository{db: db}
}

// GetByID retrieves a review cycle scoped to a company.
func (r *CyclesRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.ReviewCycle, error) {
	query := `
		SELECT id, company_id, name, status, anonymity_threshold,
			signal_processing_status, signals_processed_at
		FROM review_cycles
		WHERE id = $1 AND company_id = $2
	`

	var cycle models.ReviewCycle

	err := r.db.QueryRow(ctx, query, id, companyID).Scan(
		&cycle.ID, &cycle.CompanyID, &cycle.Name, &cycle.Status, &cycle.AnonymityThreshold,
		&cycle.SignalProcessingStatus, &cycle.SignalsProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("review cycle", "review cycle not found")
		}

		return nil, fmt.Errorf("failed to get review cycle: %w", err)
	}

	return &cycle, nil
}

// ListPendingCompleted returns completed cycles still awaiting signal
// processing, oldest first, up to limit. Used by the background sweeper.
func (r *CyclesRepository) ListPendingCompleted(ctx context.Context, limit int) ([]models.ReviewCycle, error) {
	query := `
		SELECT id, company_id, name, status, anonymity_threshold,
			signal_processing_status, signals_processed_at
		FROM review_cycles
		WHERE status = 'completed' AND signal_processing_status = 'pending'
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending cycles: %w", err)
	}
	defer rows.Close()

	cycles := []models.ReviewCycle{}

	for rows.Next() {
		var cycle models.ReviewCycle

		err := rows.Scan(
			&cycle.ID, &cycle.CompanyID, &cycle.Name, &cycle.Status, &cycle.AnonymityThreshold,
			&cycle.SignalProcessingStatus, &cycle.SignalsProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review cycle: %w", err)
		}

		cycles = append(cycles, cycle)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review cycles: %w", err)
	}

	return cycles, nil
}

// MarkProcessed flips a cycle's signal processing status to completed and
// stamps signals_processed_at.
func (r *CyclesRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE review_cycles
		SET signal_processing_status = 'completed', signals_processed_at = $1
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark cycle processed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("review cycle", "review cycle not found")
	}

	return nil
}
