package models

import (
	"time"

	"github.com/google/uuid"
)

// Signal processing statuses on a review cycle.
const (
	SignalProcessingPending   = "pending"
	SignalProcessingCompleted = "completed"
)

// ReviewCycle is a review_cycles row (external, read-mostly; this service
// only flips the signal processing status fields).
type ReviewCycle struct {
	ID                     uuid.UUID  `json:"id"`
	CompanyID              uuid.UUID  `json:"company_id"`
	Name                   string     `json:"name"`
	Status                 string     `json:"status"`
	AnonymityThreshold     int        `json:"anonymity_threshold"`
	SignalProcessingStatus string     `json:"signal_processing_status"`
	SignalsProcessedAt     *time.Time `json:"signals_processed_at,omitempty"`
}

// FeedbackRequest is a feedback_requests row joined with its rater category.
// Only completed requests feed signal aggregation.
type FeedbackRequest struct {
	ID                uuid.UUID `json:"id"`
	CycleID           uuid.UUID `json:"cycle_id"`
	SubjectEmployeeID uuid.UUID `json:"subject_employee_id"`
	RaterID           uuid.UUID `json:"rater_id"`
	Status            string    `json:"status"`
	RaterCategory     string    `json:"rater_category"`
	RaterWeight       float64   `json:"rater_weight"`
}

// FeedbackResponse is a feedback_responses row joined with its question.
type FeedbackResponse struct {
	ID               uuid.UUID `json:"id"`
	RequestID        uuid.UUID `json:"request_id"`
	RatingValue      *float64  `json:"rating_value,omitempty"`
	QuestionText     string    `json:"question_text"`
	QuestionCategory string    `json:"question_category"`
}

// SignalDefinition is a talent_signal_definitions row. Company-scoped rows
// override a global row with the same code, mirroring nudge template precedence.
type SignalDefinition struct {
	ID             uuid.UUID  `json:"id"`
	CompanyID      *uuid.UUID `json:"company_id,omitempty"`
	Code           string     `json:"code"`
	Name           string     `json:"name"`
	SignalCategory string     `json:"signal_category"`
	IsActive       bool       `json:"is_active"`
}

// RaterCategoryStats is the per-category slice of a snapshot's rater breakdown.
// Average is over unweighted ratings; Raters counts distinct raters.
type RaterCategoryStats struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
	Raters  int     `json:"raters"`
}

// SignalSnapshot is a talent_signal_snapshots row. Snapshots are an
// append-only versioned ledger: recomputation retires the prior current row
// (is_current=false, valid_until set) and inserts version max+1.
type SignalSnapshot struct {
	ID                 uuid.UUID                     `json:"id"`
	EmployeeID         uuid.UUID                     `json:"employee_id"`
	CompanyID          uuid.UUID                     `json:"company_id"`
	SignalDefinitionID uuid.UUID                     `json:"signal_definition_id"`
	SourceCycleID      uuid.UUID                     `json:"source_cycle_id"`
	SnapshotVersion    int                           `json:"snapshot_version"`
	SignalValue        float64                       `json:"signal_value"`
	RawScore           float64                       `json:"raw_score"`
	NormalizedScore    float64                       `json:"normalized_score"`
	ConfidenceScore    float64                       `json:"confidence_score"`
	BiasRiskLevel      string                        `json:"bias_risk_level"`
	BiasFactors        []string                      `json:"bias_factors"`
	EvidenceCount      int                           `json:"evidence_count"`
	EvidenceSummary    string                        `json:"evidence_summary"`
	RaterBreakdown     map[string]RaterCategoryStats `json:"rater_breakdown"`
	IsCurrent          bool                          `json:"is_current"`
	ValidUntil         *time.Time                    `json:"valid_until,omitempty"`
	CreatedAt          time.Time                     `json:"created_at"`
}

// EvidenceLink is a signal_evidence_links row pointing a snapshot back to one
// contributing response. Contribution weights sum to 1 across a snapshot's links.
type EvidenceLink struct {
	SnapshotID         uuid.UUID `json:"snapshot_id"`
	SourceTable        string    `json:"source_table"`
	SourceID           uuid.UUID `json:"source_id"`
	ContributionWeight float64   `json:"contribution_weight"`
}

// Signal processor actions.
const (
	ActionProcessCycle       = "process_cycle"
	ActionProcessEmployee    = "process_employee"
	ActionRecalculateSignals = "recalculate_signals"
	ActionGetSignalSummary   = "get_signal_summary"
)

// ValidSignalActions is the closed set of actions the signal processor accepts.
var ValidSignalActions = map[string]struct{}{
	ActionProcessCycle:       {},
	ActionProcessEmployee:    {},
	ActionRecalculateSignals: {},
	ActionGetSignalSummary:   {},
}

// SignalProcessorRequest is the JSON body for POST /v1/functions/signal-processor.
type SignalProcessorRequest struct {
	Action           string     `json:"action"`
	CycleID          *uuid.UUID `json:"cycleId,omitempty"`
	EmployeeID       *uuid.UUID `json:"employeeId,omitempty"`
	CompanyID        uuid.UUID  `json:"companyId"`
	ForceRecalculate bool       `json:"forceRecalculate,omitempty"`
}

// ProcessCycleResult reports a processing run. Employees skipped by the
// anonymity floor are silently excluded; that is not an error.
type ProcessCycleResult struct {
	Success   bool        `json:"success"`
	Processed int         `json:"processed"`
	Employees []uuid.UUID `json:"employees"`
	Message   string      `json:"message,omitempty"`
}

// QueuedResult reports that a recalculation job was accepted for background processing.
type QueuedResult struct {
	Success bool      `json:"success"`
	Queued  bool      `json:"queued"`
	CycleID uuid.UUID `json:"cycleId"`
}

// SignalView is a current snapshot joined with its definition, as returned by
// the summary reader.
type SignalView struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Category      string  `json:"signal_category"`
	Value         float64 `json:"value"`
	Confidence    float64 `json:"confidence"`
	BiasRiskLevel string  `json:"bias_risk_level"`
	EvidenceCount int     `json:"evidence_count"`
}

// SummaryStats is the strengths/development-areas rollup over current signals.
type SummaryStats struct {
	OverallScore     *float64 `json:"overall_score"`
	SignalCount      int      `json:"signal_count"`
	AvgConfidence    float64  `json:"avg_confidence"`
	Strengths        []string `json:"strengths"`
	DevelopmentAreas []string `json:"development_areas"`
}

// SignalSummary is the get_signal_summary response. An employee with zero
// current snapshots gets an empty summary, not an error.
type SignalSummary struct {
	Signals []SignalView `json:"signals"`
	Summary SummaryStats `json:"summary"`
}
