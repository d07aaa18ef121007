package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrplus/talent-hub/internal/models"
)

// SignalDefinitionsRepository reads talent signal definitions. Definitions
// are external and read-only here.
type SignalDefinitionsRepository struct {
	db *pgxpool.Pool
}

// NewSignalDefinitionsRepository creates a new signal definitions repository.
func NewSignalDefinitionsRepository(db *pgxpool.Pool) *SignalDefinitionsRepository {
	return &SignalDefinitionsRepository{db: db}
}

// ListActive returns active definitions visible to a company, keyed by code.
// A company-scoped definition overrides a global one with the same code,
// mirroring nudge template precedence; the DISTINCT ON orders company rows
// first so the override wins.
func (r *SignalDefinitionsRepository) ListActive(ctx context.Context, companyID uuid.UUID) (map[string]models.SignalDefinition, error) {
	query := `
		SELECT DISTINCT ON (code) id, company_id, code, name, signal_category, is_active
		FROM talent_signal_definitions
		WHERE (company_id = $1 OR company_id IS NULL) AND is_active = true
		ORDER BY code, company_id NULLS LAST
	`

	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list signal definitions: %w", err)
	}
	defer rows.Close()

	definitions := map[string]models.SignalDefinition{}

	for rows.Next() {
		var def models.SignalDefinition

		err := rows.Scan(&def.ID, &def.CompanyID, &def.Code, &def.Name, &def.SignalCategory, &def.IsActive)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal definition: %w", err)
		}

		definitions[def.Code] = def
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal definitions: %w", err)
	}

	return definitions, nil
}
