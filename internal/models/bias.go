package models

import (
	"time"

	"github.com/google/uuid"
)

// BiasType classifies the rater-bias archetype a detector can surface.
type BiasType string

// Known bias pattern types.
const (
	BiasLeniency        BiasType = "leniency"
	BiasSeverity        BiasType = "severity"
	BiasCentralTendency BiasType = "central_tendency"
	BiasHalo            BiasType = "halo"
	BiasHorn            BiasType = "horn"
	BiasRecency         BiasType = "recency"
	BiasContrast        BiasType = "contrast"
)

// PatternSeverity grades how pronounced a detected pattern is.
type PatternSeverity string

// Pattern severity levels.
const (
	SeverityLow    PatternSeverity = "low"
	SeverityMedium PatternSeverity = "medium"
	SeverityHigh   PatternSeverity = "high"
)

// ValidBiasTypes is the closed set of bias types accepted at the API boundary.
var ValidBiasTypes = map[BiasType]struct{}{
	BiasLeniency:        {},
	BiasSeverity:        {},
	BiasCentralTendency: {},
	BiasHalo:            {},
	BiasHorn:            {},
	BiasRecency:         {},
	BiasContrast:        {},
}

// ValidPatternSeverities is the closed set of severities accepted at the API boundary.
var ValidPatternSeverities = map[PatternSeverity]struct{}{
	SeverityLow:    {},
	SeverityMedium: {},
	SeverityHigh:   {},
}

// DimensionScore is a single per-dimension rating inside one review.
type DimensionScore struct {
	Dimension string     `json:"dimension"`
	Score     float64    `json:"score"`
	Date      *time.Time `json:"date,omitempty"`
}

// RatingSample is one employee's review as submitted by a manager.
// A batch of samples for one manager/cycle is the unit of bias analysis.
// Samples are caller-owned and never persisted by this service.
type RatingSample struct {
	EmployeeID   string           `json:"employeeId"`
	EmployeeName string           `json:"employeeName,omitempty"`
	Scores       []DimensionScore `json:"scores,omitempty"`
	OverallScore float64          `json:"overallScore"`
	ReviewDate   *time.Time       `json:"reviewDate,omitempty"`
}

// AffectedEmployee names an employee impacted by a detected pattern.
type AffectedEmployee struct {
	EmployeeID string `json:"employeeId"`
	Impact     string `json:"impact"`
}

// BiasPattern is a single classified finding produced by a detector run.
// Patterns are append-only: created once, never mutated.
type BiasPattern struct {
	Type              BiasType           `json:"type"`
	Severity          PatternSeverity    `json:"severity"`
	Confidence        float64            `json:"confidence"`
	EvidenceCount     int                `json:"evidenceCount"`
	AffectedEmployees []AffectedEmployee `json:"affectedEmployees"`
	Description       string             `json:"description"`
}

// Nudge is a resolved coaching message for a detected pattern.
type Nudge struct {
	Title              string `json:"title"`
	Message            string `json:"message"`
	SuggestedAction    string `json:"suggestedAction,omitempty"`
	EducationalContent string `json:"educationalContent,omitempty"`
}

// NudgeTemplate is a bias_nudge_templates row. Company-scoped rows take
// precedence over the global fallback (company_id IS NULL). Read-only here.
type NudgeTemplate struct {
	ID                 uuid.UUID       `json:"id"`
	CompanyID          *uuid.UUID      `json:"company_id,omitempty"`
	BiasType           BiasType        `json:"bias_type"`
	Severity           PatternSeverity `json:"severity"`
	NudgeTitle         string          `json:"nudge_title"`
	NudgeMessage       string          `json:"nudge_message"`
	SuggestedAction    *string         `json:"suggested_action,omitempty"`
	EducationalContent *string         `json:"educational_content,omitempty"`
	IsActive           bool            `json:"is_active"`
}

// BiasPatternRecord is a persisted manager_bias_patterns row.
type BiasPatternRecord struct {
	ID                uuid.UUID          `json:"id"`
	CompanyID         uuid.UUID          `json:"company_id"`
	ManagerID         uuid.UUID          `json:"manager_id"`
	CycleID           *uuid.UUID         `json:"cycle_id,omitempty"`
	PatternType       BiasType           `json:"pattern_type"`
	Severity          PatternSeverity    `json:"severity"`
	ConfidenceScore   float64            `json:"confidence_score"`
	EvidenceCount     int                `json:"evidence_count"`
	AffectedEmployees []AffectedEmployee `json:"affected_employees"`
	Description       string             `json:"description"`
	DetectionMethod   string             `json:"detection_method"`
	CreatedAt         time.Time          `json:"created_at"`
}

// ExplainabilityRecord is an ai_explainability_records row summarizing one
// detection run for audit purposes. Write-only from this service.
type ExplainabilityRecord struct {
	ID                  uuid.UUID          `json:"id"`
	CompanyID           uuid.UUID          `json:"company_id"`
	SubjectID           uuid.UUID          `json:"subject_id"`
	DecisionType        string             `json:"decision_type"`
	DecisionSummary     string             `json:"decision_summary"`
	FactorWeights       map[string]float64 `json:"factor_weights"`
	ConfidenceScore     float64            `json:"confidence_score"`
	HumanReviewRequired bool               `json:"human_review_required"`
	CreatedAt           time.Time          `json:"created_at"`
}

// Notification is a notifications row. Written for high-severity findings,
// never read back by this service.
type Notification struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// Bias detector actions.
const (
	ActionAnalyzeManagerPatterns = "analyze_manager_patterns"
	ActionDetectRecencyBias      = "detect_recency_bias"
	ActionDetectDistributionBias = "detect_distribution_bias"
	ActionDetectHaloHorn         = "detect_halo_horn"
	ActionGenerateNudge          = "generate_nudge"
)

// ValidBiasActions is the closed set of actions the bias detector accepts.
var ValidBiasActions = map[string]struct{}{
	ActionAnalyzeManagerPatterns: {},
	ActionDetectRecencyBias:      {},
	ActionDetectDistributionBias: {},
	ActionDetectHaloHorn:         {},
	ActionGenerateNudge:          {},
}

// BiasDetectorRequest is the JSON body for POST /v1/functions/bias-detector.
// Action discriminates the request; unknown actions are rejected at the boundary.
type BiasDetectorRequest struct {
	Action    string          `json:"action"`
	ManagerID uuid.UUID       `json:"managerId"`
	CompanyID uuid.UUID       `json:"companyId"`
	CycleID   *uuid.UUID      `json:"cycleId,omitempty"`
	Ratings   []RatingSample  `json:"ratings,omitempty"`
	BiasType  BiasType        `json:"biasType,omitempty"`
	Severity  PatternSeverity `json:"severity,omitempty"`
}

// EnrichedPattern is a detected pattern enriched with its persisted ID and
// resolved nudge. ID is nil when the insert for that pattern failed (the run
// continues; see partial-success semantics).
type EnrichedPattern struct {
	BiasPattern

	ID    *uuid.UUID `json:"id,omitempty"`
	Nudge *Nudge     `json:"nudge,omitempty"`
}

// PatternSummary counts detected patterns by severity.
type PatternSummary struct {
	TotalPatterns  int `json:"totalPatterns"`
	HighSeverity   int `json:"highSeverity"`
	MediumSeverity int `json:"mediumSeverity"`
	LowSeverity    int `json:"lowSeverity"`
}

// DetectBiasResponse is the bias detector response. When the sample is too
// small, Patterns is empty and Message explains why; Summary is omitted.
type DetectBiasResponse struct {
	Patterns []EnrichedPattern `json:"patterns"`
	Summary  *PatternSummary   `json:"summary,omitempty"`
	Message  string            `json:"message,omitempty"`
}
