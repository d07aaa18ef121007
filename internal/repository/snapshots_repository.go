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

// SnapshotsRepository persists talent signal snapshots and their evidence
// links. Snapshots form an append-only versioned ledger: a recomputation
// retires the prior current row and inserts the next version, never updating
// a version in place.
type SnapshotsRepository struct {
	db *pgxpool.Pool
}

// NewSnapshotsRepository creates a new snapshots repository.
func NewSnapshotsRepository(db *pgxpool.Pool) *SnapshotsRepository {
	return &SnapshotsRepository{db: db}
}

// InsertVersioned supersedes any current snapshot for the snapshot's
// (employee, signal definition, source cycle) and inserts the next version
// together with its evidence links, all in one transaction. The update locks
// the prior current row so concurrent recomputations serialize; the partial
// unique index on is_current backstops the first-insert race.
func (r *SnapshotsRepository) InsertVersioned(
	ctx context.Context, snap *models.SignalSnapshot, evidence []models.EvidenceLink,
) (*models.SignalSnapshot, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	_, err = tx.Exec(ctx, `
		UPDATE talent_signal_snapshots
		SET is_current = false, valid_until = $1
		WHERE employee_id = $2 AND signal_definition_id = $3 AND source_cycle_id = $4
		  AND is_current = true
	`, now, snap.EmployeeID, snap.SignalDefinitionID, snap.SourceCycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to retire current snapshot: %w", err)
	}

	var priorVersion int

	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(snapshot_version), 0)
		FROM talent_signal_snapshots
		WHERE employee_id = $1 AND signal_definition_id = $2 AND source_cycle_id = $3
	`, snap.EmployeeID, snap.SignalDefinitionID, snap.SourceCycleID).Scan(&priorVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to read prior snapshot version: %w", err)
	}

	factors, err := json.Marshal(snap.BiasFactors)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bias factors: %w", err)
	}

	breakdown, err := json.Marshal(snap.RaterBreakdown)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rater breakdown: %w", err)
	}

	stored := *snap
	stored.SnapshotVersion = priorVersion + 1
	stored.IsCurrent = true

	err = tx.QueryRow(ctx, `
		INSERT INTO talent_signal_snapshots (
			id, employee_id, company_id, signal_definition_id, source_cycle_id,
			snapshot_version, signal_value, raw_score, normalized_score,
			confidence_score, bias_risk_level, bias_factors,
			evidence_count, evidence_summary, rater_breakdown,
			is_current, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, true, $16)
		RETURNING id, created_at
	`,
		uuid.Must(uuid.NewV7()), snap.EmployeeID, snap.CompanyID, snap.SignalDefinitionID, snap.SourceCycleID,
		stored.SnapshotVersion, snap.SignalValue, snap.RawScore, snap.NormalizedScore,
		snap.ConfidenceScore, snap.BiasRiskLevel, factors,
		snap.EvidenceCount, snap.EvidenceSummary, breakdown,
		now,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for _, link := range evidence {
		_, err = tx.Exec(ctx, `
			INSERT INTO signal_evidence_links (id, snapshot_id, source_table, source_id, contribution_weight)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.Must(uuid.NewV7()), stored.ID, link.SourceTable, link.SourceID, link.ContributionWeight)
		if err != nil {
			return nil, fmt.Errorf("failed to insert evidence link: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot transaction: %w", err)
	}

	return &stored, nil
}

// ListCurrentByEmployee returns the employee's current snapshots joined with
// their signal definitions, ordered by category then code for stable output.
func (r *SnapshotsRepository) ListCurrentByEmployee(
	ctx context.Context, companyID, employeeID uuid.UUID,
) ([]models.SignalView, error) {
	query := `
		SELECT d.code, d.name, d.signal_category,
			s.signal_value, s.confidence_score, s.bias_risk_level, s.evidence_count
		FROM talent_signal_snapshots s
		JOIN talent_signal_definitions d ON d.id = s.signal_definition_id
		WHERE s.company_id = $1 AND s.employee_id = $2 AND s.is_current = true
		ORDER BY d.signal_category, d.code
	`

	rows, err := r.db.Query(ctx, query, companyID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list current snapshots: %w", err)
	}
	defer rows.Close()

	views := []models.SignalView{}

	for rows.Next() {
		var v models.SignalView

		err := rows.Scan(&v.Code, &v.Name, &v.Category, &v.Value, &v.Confidence, &v.BiasRiskLevel, &v.EvidenceCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan current snapshot: %w", err)
		}

		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating current snapshots: %w", err)
	}

	return views, nil
}
