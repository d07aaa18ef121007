// Package repository provides data access for bias findings and talent signals.
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

// BiasPatternsRepository persists detected bias patterns. Findings are
// append-only: rows are inserted once and never updated or deleted here.
type BiasPatternsRepository struct {
	db *pgxpool.Pool
}

// NewBiasPatternsRepository creates a new bias patterns repository.
func NewBiasPatternsRepository(db *pgxpool.Pool) *BiasPatternsRepository {
	return &BiasPatternsRepository{db: db}
}

// Insert writes one manager_bias_patterns row and returns it with its ID.
func (r *BiasPatternsRepository) Insert(ctx context.Context, rec *models.BiasPatternRecord) (*models.BiasPatternRecord, error) {
	affected, err := json.Marshal(rec.AffectedEmployees)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal affected employees: %w", err)
	}

	query := `
		INSERT INTO manager_bias_patterns (
			id, company_id, manager_id, cycle_id,
			pattern_type, severity, confidence_score, evidence_count,
			affected_employees, description, detection_method, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`

	stored := *rec
	id := uuid.Must(uuid.NewV7())

	err = r.db.QueryRow(ctx, query,
		id, rec.CompanyID, rec.ManagerID, rec.CycleID,
		rec.PatternType, rec.Severity, rec.ConfidenceScore, rec.EvidenceCount,
		affected, rec.Description, rec.DetectionMethod, time.Now(),
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert bias pattern: %w", err)
	}

	return &stored, nil
}

// ListByManager returns persisted patterns for a manager within a company,
// newest first.
func (r *BiasPatternsRepository) ListByManager(
	ctx context.Context, companyID, managerID uuid.UUID, limit int,
) ([]models.BiasPatternRecord, error) {
	query := `
		SELECT id, company_id, manager_id, cycle_id,
			pattern_type, severity, confidence_score, evidence_count,
			affected_employees, description, detection_method, created_at
		FROM manager_bias_patterns
		WHERE company_id = $1 AND manager_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, companyID, managerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bias patterns: %w", err)
	}
	defer rows.Close()

	records := []models.BiasPatternRecord{}

	for rows.Next() {
		var rec models.BiasPatternRecord

		var affected []byte

		err := rows.Scan(
			&rec.ID, &rec.CompanyID, &rec.ManagerID, &rec.CycleID,
			&rec.PatternType, &rec.Severity, &rec.ConfidenceScore, &rec.EvidenceCount,
			&affected, &rec.Description, &rec.DetectionMethod, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bias pattern: %w", err)
		}

		if len(affected) > 0 {
			if err := json.Unmarshal(affected, &rec.AffectedEmployees); err != nil {
				return nil, fmt.Errorf("failed to unmarshal affected employees: %w", err)
			}
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bias patterns: %w", err)
	}

	return records, nil
}
