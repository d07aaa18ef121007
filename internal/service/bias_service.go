package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hrplus/talent-hub/internal/apperrors"
	"github.com/hrplus/talent-hub/internal/bias"
	"github.com/hrplus/talent-hub/internal/models"
	"github.com/hrplus/talent-hub/internal/observability"
)

// detectionMethod is recorded on every persisted pattern. The detectors are
// purely statistical; no model inference is involved.
const detectionMethod = "statistical_analysis"

// explainabilityFactorWeights is the fixed factor breakdown recorded with each
// detection run.
var explainabilityFactorWeights = map[string]float64{
	"statistical_distribution": 0.4,
	"pattern_correlation":      0.3,
	"temporal_analysis":        0.3,
}

// NudgeTemplatesRepository defines the interface for nudge template lookup.
type NudgeTemplatesRepository interface {
	Resolve(ctx context.Context, companyID uuid.UUID, biasType models.BiasType, severity models.PatternSeverity) (*models.NudgeTemplate, error)
}

// BiasPatternsRepository defines the interface for bias pattern persistence.
type BiasPatternsRepository interface {
	Insert(ctx context.Context, rec *models.BiasPatternRecord) (*models.BiasPatternRecord, error)
}

// ExplainabilityRepository defines the interface for audit record persistence.
type ExplainabilityRepository interface {
	Insert(ctx context.Context, rec *models.ExplainabilityRecord) error
}

// NotificationsRepository defines the interface for notification persistence.
type NotificationsRepository interface {
	Insert(ctx context.Context, n *models.Notification) error
}

// BiasService orchestrates bias detection runs: it dispatches the statistical
// detectors, resolves coaching nudges, persists findings, and writes the audit
// trail. Persistence failures for individual patterns are logged and skipped
// so one bad row never discards the rest of a run's findings.
type BiasService struct {
	detector       *bias.Detector
	templates      NudgeTemplatesRepository
	patterns       BiasPatternsRepository
	explainability ExplainabilityRepository
	notifications  NotificationsRepository
	metrics        observability.InsightsMetrics
}

// NewBiasService creates a new bias detection service. metrics may be nil when
// metrics are disabled.
func NewBiasService(
	detector *bias.Detector,
	templates NudgeTemplatesRepository,
	patterns BiasPatternsRepository,
	explainability ExplainabilityRepository,
	notifications NotificationsRepository,
	metrics observability.InsightsMetrics,
) *BiasService {
	return &BiasService{
		detector:       detector,
		templates:      templates,
		patterns:       patterns,
		explainability: explainability,
		notifications:  notifications,
		metrics:        metrics,
	}
}

// DetectBias runs the detectors selected by the request action over the
// supplied rating batch. A batch below the minimum sample size is an
// informational outcome, not an error: the response carries an explanatory
// message and no patterns.
func (s *BiasService) DetectBias(ctx context.Context, req *models.BiasDetectorRequest) (*models.DetectBiasResponse, error) {
	if s.metrics != nil {
		s.metrics.RecordDetectorRun(ctx, req.Action)
	}

	detected, ok := s.detector.Run(req.Action, req.Ratings)
	if !ok {
		return &models.DetectBiasResponse{
			Patterns: []models.EnrichedPattern{},
			Message: fmt.Sprintf("At least %d completed reviews are required for bias analysis; received %d",
				s.detector.MinimumSampleSize(), len(req.Ratings)),
		}, nil
	}

	enriched := make([]models.EnrichedPattern, 0, len(detected))
	summary := models.PatternSummary{TotalPatterns: len(detected)}

	for _, pattern := range detected {
		switch pattern.Severity {
		case models.SeverityHigh:
			summary.HighSeverity++
		case models.SeverityMedium:
			summary.MediumSeverity++
		case models.SeverityLow:
			summary.LowSeverity++
		}

		if s.metrics != nil {
			s.metrics.RecordPatternDetected(ctx, string(pattern.Type), string(pattern.Severity))
		}

		item := models.EnrichedPattern{
			BiasPattern: pattern,
			Nudge:       s.resolveNudge(ctx, req.CompanyID, pattern),
		}

		stored, err := s.patterns.Insert(ctx, &models.BiasPatternRecord{
			CompanyID:         req.CompanyID,
			ManagerID:         req.ManagerID,
			CycleID:           req.CycleID,
			PatternType:       pattern.Type,
			Severity:          pattern.Severity,
			ConfidenceScore:   pattern.Confidence,
			EvidenceCount:     pattern.EvidenceCount,
			AffectedEmployees: pattern.AffectedEmployees,
			Description:       pattern.Description,
			DetectionMethod:   detectionMethod,
		})
		if err != nil {
			slog.Error("failed to persist bias pattern",
				"manager_id", req.ManagerID,
				"pattern_type", pattern.Type,
				"error", err,
			)
		} else {
			item.ID = &stored.ID
		}

		if pattern.Severity == models.SeverityHigh {
			s.notifyHighSeverity(ctx, req, pattern)
		}

		enriched = append(enriched, item)
	}

	s.recordExplainability(ctx, req, detected)

	return &models.DetectBiasResponse{
		Patterns: enriched,
		Summary:  &summary,
	}, nil
}

// GenerateNudge resolves a coaching nudge for an explicit (bias type,
// severity) pair without running any detector. It returns a nil nudge when
// neither a company nor a global template exists.
func (s *BiasService) GenerateNudge(ctx context.Context, req *models.BiasDetectorRequest) (*models.Nudge, error) {
	if _, ok := models.ValidBiasTypes[req.BiasType]; !ok {
		return nil, apperrors.NewValidationError("biasType", fmt.Sprintf("unknown bias type: %s", req.BiasType))
	}

	if _, ok := models.ValidPatternSeverities[req.Severity]; !ok {
		return nil, apperrors.NewValidationError("severity", fmt.Sprintf("unknown severity: %s", req.Severity))
	}

	tmpl, err := s.templates.Resolve(ctx, req.CompanyID, req.BiasType, req.Severity)
	if err != nil {
		return nil, err
	}

	if tmpl == nil {
		return nil, nil
	}

	return nudgeFromTemplate(tmpl), nil
}

// resolveNudge looks up the coaching template for a detected pattern. Lookup
// failures degrade to the generic fallback rather than failing the run.
func (s *BiasService) resolveNudge(ctx context.Context, companyID uuid.UUID, pattern models.BiasPattern) *models.Nudge {
	tmpl, err := s.templates.Resolve(ctx, companyID, pattern.Type, pattern.Severity)
	if err != nil {
		slog.Warn("failed to resolve nudge template",
			"bias_type", pattern.Type,
			"severity", pattern.Severity,
			"error", err,
		)

		return fallbackNudge(pattern)
	}

	if tmpl == nil {
		return fallbackNudge(pattern)
	}

	return nudgeFromTemplate(tmpl)
}

func (s *BiasService) notifyHighSeverity(ctx context.Context, req *models.BiasDetectorRequest, pattern models.BiasPattern) {
	err := s.notifications.Insert(ctx, &models.Notification{
		CompanyID:   req.CompanyID,
		RecipientID: req.ManagerID,
		Type:        "bias_alert",
		Title:       fmt.Sprintf("High severity %s bias detected", pattern.Type),
		Body:        pattern.Description,
	})
	if err != nil {
		slog.Error("failed to insert bias notification",
			"manager_id", req.ManagerID,
			"pattern_type", pattern.Type,
			"error", err,
		)
	}
}

// recordExplainability writes one audit record per detection run, including
// runs that found nothing. Confidence is the highest pattern confidence, or
// 0.5 for a clean run; human review is flagged on any high-severity finding.
func (s *BiasService) recordExplainability(ctx context.Context, req *models.BiasDetectorRequest, detected []models.BiasPattern) {
	confidence := 0.5
	humanReview := false

	for _, pattern := range detected {
		if pattern.Confidence > confidence {
			confidence = pattern.Confidence
		}
		if pattern.Severity == models.SeverityHigh {
			humanReview = true
		}
	}

	err := s.explainability.Insert(ctx, &models.ExplainabilityRecord{
		CompanyID:    req.CompanyID,
		SubjectID:    req.ManagerID,
		DecisionType: "bias_detection",
		DecisionSummary: fmt.Sprintf("%d bias patterns detected across %d reviews",
			len(detected), len(req.Ratings)),
		FactorWeights:       explainabilityFactorWeights,
		ConfidenceScore:     confidence,
		HumanReviewRequired: humanReview,
	})
	if err != nil {
		slog.Error("failed to insert explainability record",
			"manager_id", req.ManagerID,
			"error", err,
		)
	}
}

func nudgeFromTemplate(tmpl *models.NudgeTemplate) *models.Nudge {
	nudge := &models.Nudge{
		Title:   tmpl.NudgeTitle,
		Message: tmpl.NudgeMessage,
	}

	if tmpl.SuggestedAction != nil {
		nudge.SuggestedAction = *tmpl.SuggestedAction
	}

	if tmpl.EducationalContent != nil {
		nudge.EducationalContent = *tmpl.EducationalContent
	}

	return nudge
}

// fallbackNudge covers companies with no matching template, active or
// otherwise. The detector's own description stands in for the coaching
// message so the text always matches the finding.
func fallbackNudge(pattern models.BiasPattern) *models.Nudge {
	return &models.Nudge{
		Title:   fmt.Sprintf("Review your rating patterns (%s)", pattern.Type),
		Message: pattern.Description,
	}
}
