package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/hrplus/talent-hub/internal/jobs"
	"github.com/hrplus/talent-hub/internal/models"
	"github.com/hrplus/talent-hub/internal/observability"
	"github.com/hrplus/talent-hub/internal/signals"
)

// defaultAnonymityThreshold applies when a cycle carries no explicit floor.
const defaultAnonymityThreshold = 3

// Summary score cutoffs on the normalized 0-100 scale.
const (
	strengthCutoff    = 80.0
	developmentCutoff = 60.0
)

// CyclesRepository defines the interface for review cycle data access.
type CyclesRepository interface {
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.ReviewCycle, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
}

// FeedbackRepository defines the interface for feedback request and response reads.
type FeedbackRepository interface {
	ListCompletedRequests(ctx context.Context, cycleID uuid.UUID) ([]models.FeedbackRequest, error)
	ListRatingResponses(ctx context.Context, requestIDs []uuid.UUID) ([]models.FeedbackResponse, error)
}

// SignalDefinitionsRepository defines the interface for signal definition lookup.
type SignalDefinitionsRepository interface {
	ListActive(ctx context.Context, companyID uuid.UUID) (map[string]models.SignalDefinition, error)
}

// SnapshotsRepository defines the interface for snapshot persistence.
type SnapshotsRepository interface {
	InsertVersioned(ctx context.Context, snap *models.SignalSnapshot, evidence []models.EvidenceLink) (*models.SignalSnapshot, error)
	ListCurrentByEmployee(ctx context.Context, companyID, employeeID uuid.UUID) ([]models.SignalView, error)
}

// SignalsService turns completed review cycles into versioned talent signal
// snapshots. Aggregation itself is pure (internal/signals); this service owns
// cycle state, the anonymity floor, and persistence.
type SignalsService struct {
	cycles      CyclesRepository
	feedback    FeedbackRepository
	definitions SignalDefinitionsRepository
	snapshots   SnapshotsRepository
	inserter    jobs.JobInserter
	metrics     observability.InsightsMetrics
}

// NewSignalsService creates a new signals service. inserter may be nil when
// background jobs are disabled; recalculation then runs synchronously.
// metrics may be nil when metrics are disabled.
func NewSignalsService(
	cycles CyclesRepository,
	feedback FeedbackRepository,
	definitions SignalDefinitionsRepository,
	snapshots SnapshotsRepository,
	inserter jobs.JobInserter,
	metrics observability.InsightsMetrics,
) *SignalsService {
	return &SignalsService{
		cycles:      cycles,
		feedback:    feedback,
		definitions: definitions,
		snapshots:   snapshots,
		inserter:    inserter,
		metrics:     metrics,
	}
}

// ProcessCycle aggregates every eligible employee in the cycle into signal
// snapshots and marks the cycle processed. An already processed cycle is a
// no-op unless force is set. Employees below the anonymity floor are excluded
// silently; per-employee persistence failures are logged and skipped. Only
// employees with at least one numeric response count as processed.
func (s *SignalsService) ProcessCycle(ctx context.Context, companyID, cycleID uuid.UUID, force bool) (*models.ProcessCycleResult, error) {
	cycle, err := s.cycles.GetByID(ctx, companyID, cycleID)
	if err != nil {
		return nil, err
	}

	if cycle.SignalProcessingStatus == models.SignalProcessingCompleted && !force {
		return &models.ProcessCycleResult{
			Success:   true,
			Employees: []uuid.UUID{},
			Message:   "cycle already processed",
		}, nil
	}

	requests, err := s.feedback.ListCompletedRequests(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	definitions, err := s.definitions.ListActive(ctx, companyID)
	if err != nil {
		return nil, err
	}

	threshold := cycle.AnonymityThreshold
	if threshold <= 0 {
		threshold = defaultAnonymityThreshold
	}

	bySubject := map[uuid.UUID][]models.FeedbackRequest{}
	for _, req := range requests {
		bySubject[req.SubjectEmployeeID] = append(bySubject[req.SubjectEmployeeID], req)
	}

	subjects := make([]uuid.UUID, 0, len(bySubject))
	for id := range bySubject {
		subjects = append(subjects, id)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].String() < subjects[j].String() })

	processed := []uuid.UUID{}

	for _, employeeID := range subjects {
		subjectRequests := bySubject[employeeID]

		if len(subjectRequests) < threshold {
			if s.metrics != nil {
				s.metrics.RecordAnonymitySkip(ctx)
			}

			slog.Debug("employee below anonymity floor",
				"cycle_id", cycleID,
				"employee_id", employeeID,
				"requests", len(subjectRequests),
				"threshold", threshold,
			)

			continue
		}

		aggregated, err := s.processEmployee(ctx, cycle, employeeID, subjectRequests, definitions, threshold)
		if err != nil {
			slog.Error("failed to process employee signals",
				"cycle_id", cycleID,
				"employee_id", employeeID,
				"error", err,
			)

			continue
		}

		if !aggregated {
			continue
		}

		processed = append(processed, employeeID)
	}

	if err := s.cycles.MarkProcessed(ctx, cycleID); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordCycleProcessed(ctx)
	}

	slog.Info("cycle signal processing completed",
		"cycle_id", cycleID,
		"employees_processed", len(processed),
	)

	return &models.ProcessCycleResult{
		Success:   true,
		Processed: len(processed),
		Employees: processed,
	}, nil
}

// ProcessEmployee recomputes signals for a single employee in a cycle. The
// anonymity floor applies exactly as in a full cycle run; an employee below it
// gets a zero-processed result, not an error.
func (s *SignalsService) ProcessEmployee(ctx context.Context, companyID, cycleID, employeeID uuid.UUID) (*models.ProcessCycleResult, error) {
	cycle, err := s.cycles.GetByID(ctx, companyID, cycleID)
	if err != nil {
		return nil, err
	}

	requests, err := s.feedback.ListCompletedRequests(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	subjectRequests := make([]models.FeedbackRequest, 0, len(requests))
	for _, req := range requests {
		if req.SubjectEmployeeID == employeeID {
			subjectRequests = append(subjectRequests, req)
		}
	}

	threshold := cycle.AnonymityThreshold
	if threshold <= 0 {
		threshold = defaultAnonymityThreshold
	}

	if len(subjectRequests) < threshold {
		if s.metrics != nil {
			s.metrics.RecordAnonymitySkip(ctx)
		}

		return &models.ProcessCycleResult{
			Success:   true,
			Employees: []uuid.UUID{},
			Message:   fmt.Sprintf("fewer than %d completed responses; skipped to preserve rater anonymity", threshold),
		}, nil
	}

	definitions, err := s.definitions.ListActive(ctx, companyID)
	if err != nil {
		return nil, err
	}

	aggregated, err := s.processEmployee(ctx, cycle, employeeID, subjectRequests, definitions, threshold)
	if err != nil {
		return nil, err
	}

	if !aggregated {
		return &models.ProcessCycleResult{
			Success:   true,
			Employees: []uuid.UUID{},
			Message:   "no numeric feedback responses to aggregate",
		}, nil
	}

	return &models.ProcessCycleResult{
		Success:   true,
		Processed: 1,
		Employees: []uuid.UUID{employeeID},
	}, nil
}

// RecalculateSignals queues a background recomputation of the cycle. Without a
// job inserter it degrades to a synchronous forced run.
func (s *SignalsService) RecalculateSignals(ctx context.Context, companyID, cycleID uuid.UUID) (*models.QueuedResult, error) {
	if s.inserter == nil {
		result, err := s.ProcessCycle(ctx, companyID, cycleID, true)
		if err != nil {
			return nil, err
		}

		return &models.QueuedResult{Success: result.Success, Queued: false, CycleID: cycleID}, nil
	}

	// Verify the cycle exists before accepting the job.
	if _, err := s.cycles.GetByID(ctx, companyID, cycleID); err != nil {
		return nil, err
	}

	err := s.inserter.InsertSignalRecalcJob(ctx, jobs.SignalRecalcArgs{
		CycleID:   cycleID,
		CompanyID: companyID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue signal recalculation: %w", err)
	}

	return &models.QueuedResult{Success: true, Queued: true, CycleID: cycleID}, nil
}

// GetSignalSummary returns the employee's current signals with a
// strengths/development rollup. An employee with no snapshots gets an empty
// summary, not an error.
func (s *SignalsService) GetSignalSummary(ctx context.Context, companyID, employeeID uuid.UUID) (*models.SignalSummary, error) {
	views, err := s.snapshots.ListCurrentByEmployee(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}

	summary := models.SummaryStats{
		SignalCount:      len(views),
		Strengths:        []string{},
		DevelopmentAreas: []string{},
	}

	if len(views) > 0 {
		var valueSum, confidenceSum float64

		for _, v := range views {
			valueSum += v.Value
			confidenceSum += v.Confidence

			if v.Value >= strengthCutoff {
				summary.Strengths = append(summary.Strengths, v.Name)
			} else if v.Value < developmentCutoff {
				summary.DevelopmentAreas = append(summary.DevelopmentAreas, v.Name)
			}
		}

		overall := valueSum / float64(len(views))
		summary.OverallScore = &overall
		summary.AvgConfidence = confidenceSum / float64(len(views))
	}

	return &models.SignalSummary{Signals: views, Summary: summary}, nil
}

// processEmployee aggregates one employee's completed responses and writes one
// versioned snapshot per touched signal. Snapshots that cannot be written are
// logged and skipped without failing the employee. Returns false when the
// employee has no numeric responses to aggregate.
func (s *SignalsService) processEmployee(
	ctx context.Context,
	cycle *models.ReviewCycle,
	employeeID uuid.UUID,
	requests []models.FeedbackRequest,
	definitions map[string]models.SignalDefinition,
	threshold int,
) (bool, error) {
	requestIDs := make([]uuid.UUID, len(requests))
	raters := make(map[uuid.UUID]models.FeedbackRequest, len(requests))

	for i, req := range requests {
		requestIDs[i] = req.ID
		raters[req.ID] = req
	}

	responses, err := s.feedback.ListRatingResponses(ctx, requestIDs)
	if err != nil {
		return false, err
	}

	inputs := make([]signals.ResponseInput, 0, len(responses))

	for _, resp := range responses {
		req, ok := raters[resp.RequestID]
		if !ok || resp.RatingValue == nil {
			continue
		}

		inputs = append(inputs, signals.ResponseInput{
			ResponseID:       resp.ID,
			RaterID:          req.RaterID,
			RaterCategory:    req.RaterCategory,
			RaterWeight:      req.RaterWeight,
			Rating:           *resp.RatingValue,
			QuestionText:     resp.QuestionText,
			QuestionCategory: resp.QuestionCategory,
		})
	}

	if len(inputs) == 0 {
		slog.Debug("no rating responses for employee",
			"cycle_id", cycle.ID,
			"employee_id", employeeID,
		)

		return false, nil
	}

	written := 0

	for _, agg := range signals.AggregateSignals(inputs, threshold) {
		def, ok := definitions[agg.Code]
		if !ok {
			slog.Warn("no active definition for signal",
				"signal_code", agg.Code,
				"company_id", cycle.CompanyID,
			)

			continue
		}

		weight := signals.EvidenceWeights(len(agg.EvidenceIDs))
		evidence := make([]models.EvidenceLink, len(agg.EvidenceIDs))
		for i, responseID := range agg.EvidenceIDs {
			evidence[i] = models.EvidenceLink{
				SourceTable:        "feedback_responses",
				SourceID:           responseID,
				ContributionWeight: weight,
			}
		}

		_, err := s.snapshots.InsertVersioned(ctx, &models.SignalSnapshot{
			EmployeeID:         employeeID,
			CompanyID:          cycle.CompanyID,
			SignalDefinitionID: def.ID,
			SourceCycleID:      cycle.ID,
			SignalValue:        agg.NormalizedScore,
			RawScore:           agg.RawScore,
			NormalizedScore:    agg.NormalizedScore,
			ConfidenceScore:    agg.Confidence,
			BiasRiskLevel:      agg.BiasRiskLevel,
			BiasFactors:        agg.BiasFactors,
			EvidenceCount:      len(agg.EvidenceIDs),
			EvidenceSummary:    agg.EvidenceSummary,
			RaterBreakdown:     agg.RaterBreakdown,
		}, evidence)
		if err != nil {
			slog.Error("failed to write signal snapshot",
				"employee_id", employeeID,
				"signal_code", agg.Code,
				"error", err,
			)

			continue
		}

		written++
	}

	if s.metrics != nil && written > 0 {
		s.metrics.RecordSnapshotsWritten(ctx, written)
	}

	return true, nil
}
