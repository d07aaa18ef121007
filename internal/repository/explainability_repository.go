package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrplus/talent-hub/internal/models"
)

// ExplainabilityRepository writes AI explainability audit records. This
// service only appends; records are never read back here.
type ExplainabilityRepository struct {
	db *pgxpool.Pool
}

// NewExplainabilityRepository creates a new explainability repository.
func NewExplainabilityRepository(db *pgxpool.Pool) *ExplainabilityRepository {
	return &ExplainabilityRepository{db: db}
}

// Insert writes one ai_explainability_records row.
func (r *ExplainabilityRepository) Insert(ctx context.Context, rec *models.ExplainabilityRecord) error {
	weights, err := json.Marshal(rec.FactorWeights)
	if err != nil {
		return fmt.Errorf("failed to marshal factor weights: %w", err)
	}

	query := `
		INSERT INTO ai_explainability_records (
			id, company_id, subject_id, decision_type, decision_summary,
			factor_weights, confidence_score, human_review_required, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.Exec(ctx, query,
		uuid.Must(uuid.NewV7()), rec.CompanyID, rec.SubjectID, rec.DecisionType, rec.DecisionSummary,
		weights, rec.ConfidenceScore, rec.HumanReviewRequired, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert explainability record: %w", err)
	}

	return nil
}
