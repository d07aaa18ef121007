package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrplus/talent-hub/internal/models"
)

// NudgeTemplatesRepository handles read-only access to bias nudge templates.
type NudgeTemplatesRepository struct {
	db *pgxpool.Pool
}

// NewNudgeTemplatesRepository creates a new nudge templates repository.
func NewNudgeTemplatesRepository(db *pgxpool.Pool) *NudgeTemplatesRepository {
	return &NudgeTemplatesRepository{db: db}
}

// Resolve returns the active template for (bias_type, severity), preferring a
// company-scoped row over the global fallback (company_id IS NULL). Returns
// (nil, nil) when neither exists; callers then use the detector's generic
// description as the coaching message.
func (r *NudgeTemplatesRepository) Resolve(
	ctx context.Context, companyID uuid.UUID, biasType models.BiasType, severity models.PatternSeverity,
) (*models.NudgeTemplate, error) {
	query := `
		SELECT id, company_id, bias_type, severity,
			nudge_title, nudge_message, suggested_action, educational_content, is_active
		FROM bias_nudge_templates
		WHERE (company_id = $1 OR company_id IS NULL)
		  AND bias_type = $2
		  AND severity = $3
		  AND is_active = true
		ORDER BY company_id NULLS LAST
		LIMIT 1
	`

	var tmpl models.NudgeTemplate

	err := r.db.QueryRow(ctx, query, companyID, biasType, severity).Scan(
		&tmpl.ID, &tmpl.CompanyID, &tmpl.BiasType, &tmpl.Severity,
		&tmpl.NudgeTitle, &tmpl.NudgeMessage, &tmpl.SuggestedAction, &tmpl.EducationalContent, &tmpl.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to resolve nudge template: %w", err)
	}

	return &tmpl, nil
}
