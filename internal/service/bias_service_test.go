package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hrplus/talent-hub/internal/apperrors"
	"github.com/hrplus/talent-hub/internal/bias"
	"github.com/hrplus/talent-hub/internal/models"
)

// MockNudgeTemplatesRepository is a mock implementation of NudgeTemplatesRepository
type MockNudgeTemplatesRepository struct {
	mock.Mock
}

func (m *MockNudgeTemplatesRepository) Resolve(ctx context.Context, companyID uuid.UUID, biasType models.BiasType, severity models.PatternSeverity) (*models.NudgeTemplate, error) {
	args := m.Called(ctx, companyID, biasType, severity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NudgeTemplate), args.Error(1)
}

// MockBiasPatternsRepository is a mock implementation of BiasPatternsRepository
type MockBiasPatternsRepository struct {
	mock.Mock
}

func (m *MockBiasPatternsRepository) Insert(ctx context.Context, rec *models.BiasPatternRecord) (*models.BiasPatternRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BiasPatternRecord), args.Error(1)
}

// MockExplainabilityRepository is a mock implementation of ExplainabilityRepository
type MockExplainabilityRepository struct {
	mock.Mock
}

func (m *MockExplainabilityRepository) Insert(ctx context.Context, rec *models.ExplainabilityRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// MockNotificationsRepository is a mock implementation of NotificationsRepository
type MockNotificationsRepository struct {
	mock.Mock
}

func (m *MockNotificationsRepository) Insert(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type biasServiceMocks struct {
	templates      *MockNudgeTemplatesRepository
	patterns       *MockBiasPatternsRepository
	explainability *MockExplainabilityRepository
	notifications  *MockNotificationsRepository
}

func newBiasService() (*BiasService, *biasServiceMocks) {
	mocks := &biasServiceMocks{
		templates:      new(MockNudgeTemplatesRepository),
		patterns:       new(MockBiasPatternsRepository),
		explainability: new(MockExplainabilityRepository),
		notifications:  new(MockNotificationsRepository),
	}

	svc := NewBiasService(
		bias.NewDetector(bias.DefaultConfig()),
		mocks.templates,
		mocks.patterns,
		mocks.explainability,
		mocks.notifications,
		nil,
	)

	return svc, mocks
}

func lenientBatch() []models.RatingSample {
	return []models.RatingSample{
		{EmployeeID: "e1", OverallScore: 5.0},
		{EmployeeID: "e2", OverallScore: 5.0},
		{EmployeeID: "e3", OverallScore: 4.5},
		{EmployeeID: "e4", OverallScore: 4.8},
	}
}

func TestDetectBias_InsufficientSample(t *testing.T) {
	svc, mocks := newBiasService()

	resp, err := svc.DetectBias(context.Background(), &models.BiasDetectorRequest{
		Action:    models.ActionAnalyzeManagerPatterns,
		ManagerID: uuid.Must(uuid.NewV7()),
		CompanyID: uuid.Must(uuid.NewV7()),
		Ratings: []models.RatingSample{
			{EmployeeID: "e1", OverallScore: 5.0},
			{EmployeeID: "e2", OverallScore: 5.0},
		},
	})

	require.NoError(t, err)
	assert.Empty(t, resp.Patterns)
	assert.Nil(t, resp.Summary)
	assert.Contains(t, resp.Message, "At least 3")

	// nothing persisted for a guarded run
	mocks.patterns.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	mocks.explainability.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestDetectBias_LeniencyRunPersistsAndNotifies(t *testing.T) {
	svc, mocks := newBiasService()

	companyID := uuid.Must(uuid.NewV7())
	managerID := uuid.Must(uuid.NewV7())
	storedID := uuid.Must(uuid.NewV7())

	action := "Calibrate against concrete outcomes"
	mocks.templates.On("Resolve", mock.Anything, companyID, models.BiasLeniency, models.SeverityHigh).
		Return(&models.NudgeTemplate{
			NudgeTitle:      "Watch for leniency",
			NudgeMessage:    "Your recent ratings cluster near the top of the scale.",
			SuggestedAction: &action,
		}, nil)

	mocks.patterns.On("Insert", mock.Anything, mock.MatchedBy(func(rec *models.BiasPatternRecord) bool {
		return rec.PatternType == models.BiasLeniency &&
			rec.Severity == models.SeverityHigh &&
			rec.DetectionMethod == "statistical_analysis" &&
			rec.EvidenceCount == 4 &&
			len(rec.AffectedEmployees) == 4
	})).Return(&models.BiasPatternRecord{ID: storedID, CreatedAt: time.Now()}, nil)

	mocks.notifications.On("Insert", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.RecipientID == managerID && n.Type == "bias_alert"
	})).Return(nil)

	mocks.explainability.On("Insert", mock.Anything, mock.MatchedBy(func(rec *models.ExplainabilityRecord) bool {
		return rec.SubjectID == managerID &&
			rec.DecisionType == "bias_detection" &&
			rec.HumanReviewRequired &&
			rec.ConfidenceScore > 0.78 && rec.ConfidenceScore < 0.79
	})).Return(nil)

	resp, err := svc.DetectBias(context.Background(), &models.BiasDetectorRequest{
		Action:    models.ActionAnalyzeManagerPatterns,
		ManagerID: managerID,
		CompanyID: companyID,
		Ratings:   lenientBatch(),
	})

	require.NoError(t, err)
	require.Len(t, resp.Patterns, 1)

	pattern := resp.Patterns[0]
	assert.Equal(t, models.BiasLeniency, pattern.Type)
	require.NotNil(t, pattern.ID)
	assert.Equal(t, storedID, *pattern.ID)
	require.NotNil(t, pattern.Nudge)
	assert.Equal(t, "Watch for leniency", pattern.Nudge.Title)
	assert.Equal(t, action, pattern.Nudge.SuggestedAction)

	require.NotNil(t, resp.Summary)
	assert.Equal(t, 1, resp.Summary.TotalPatterns)
	assert.Equal(t, 1, resp.Summary.HighSeverity)

	mocks.templates.AssertExpectations(t)
	mocks.patterns.AssertExpectations(t)
	mocks.notifications.AssertExpectations(t)
	mocks.explainability.AssertExpectations(t)
}

func TestDetectBias_InsertFailureKeepsPattern(t *testing.T) {
	svc, mocks := newBiasService()

	mocks.templates.On("Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil)
	mocks.patterns.On("Insert", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset"))
	mocks.notifications.On("Insert", mock.Anything, mock.Anything).Return(nil)
	mocks.explainability.On("Insert", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.DetectBias(context.Background(), &models.BiasDetectorRequest{
		Action:    models.ActionDetectDistributionBias,
		ManagerID: uuid.Must(uuid.NewV7()),
		CompanyID: uuid.Must(uuid.NewV7()),
		Ratings:   lenientBatch(),
	})

	require.NoError(t, err)
	require.Len(t, resp.Patterns, 1)
	assert.Nil(t, resp.Patterns[0].ID)
	// fallback nudge still attached when no template exists
	require.NotNil(t, resp.Patterns[0].Nudge)
	assert.Contains(t, resp.Patterns[0].Nudge.Title, "leniency")
}

func TestDetectBias_NudgeLookupFailureFallsBack(t *testing.T) {
	svc, mocks := newBiasService()

	mocks.templates.On("Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("timeout"))
	mocks.patterns.On("Insert", mock.Anything, mock.Anything).
		Return(&models.BiasPatternRecord{ID: uuid.Must(uuid.NewV7())}, nil)
	mocks.notifications.On("Insert", mock.Anything, mock.Anything).Return(nil)
	mocks.explainability.On("Insert", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.DetectBias(context.Background(), &models.BiasDetectorRequest{
		Action:    models.ActionDetectDistributionBias,
		ManagerID: uuid.Must(uuid.NewV7()),
		CompanyID: uuid.Must(uuid.NewV7()),
		Ratings:   lenientBatch(),
	})

	require.NoError(t, err)
	require.Len(t, resp.Patterns, 1)
	require.NotNil(t, resp.Patterns[0].Nudge)
	assert.Equal(t, resp.Patterns[0].Description, resp.Patterns[0].Nudge.Message)
}

func TestDetectBias_MissingTemplateUsesPatternDescription(t *testing.T) {
	svc, mocks := newBiasService()

	mocks.templates.On("Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil)
	mocks.patterns.On("Insert", mock.Anything, mock.Anything).
		Return(&models.BiasPatternRecord{ID: uuid.Must(uuid.NewV7())}, nil)
	mocks.notifications.On("Insert", mock.Anything, mock.Anything).Return(nil)
	mocks.explainability.On("Insert", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.DetectBias(context.Background(), &models.BiasDetectorRequest{
		Action:    models.ActionDetectDistributionBias,
		ManagerID: uuid.Must(uuid.NewV7()),
		CompanyID: uuid.Must(uuid.NewV7()),
		Ratings: []models.RatingSample{
			{EmployeeID: "e1", OverallScore: 5},
			{EmployeeID: "e2", OverallScore: 5},
			{EmployeeID: "e3", OverallScore: 4.8},
		},
	})

	require.NoError(t, err)
	require.Len(t, resp.Patterns, 1)
	require.NotNil(t, resp.Patterns[0].Nudge)
	assert.Equal(t, "Average overall rating of 4.93 across 3 reviews is unusually high",
		resp.Patterns[0].Nudge.Message)
}

func TestDetectBias_CleanRunWritesExplainability(t *testing.T) {
	svc, mocks := newBiasService()

	mocks.explainability.On("Insert", mock.Anything, mock.MatchedBy(func(rec *models.ExplainabilityRecord) bool {
		return rec.ConfidenceScore == 0.5 && !rec.HumanReviewRequired
	})).Return(nil)

	resp, err := svc.DetectBias(context.Background(), &models.BiasDetectorRequest{
		Action:    models.ActionAnalyzeManagerPatterns,
		ManagerID: uuid.Must(uuid.NewV7()),
		CompanyID: uuid.Must(uuid.NewV7()),
		Ratings: []models.RatingSample{
			{EmployeeID: "e1", OverallScore: 3.0},
			{EmployeeID: "e2", OverallScore: 4.0},
			{EmployeeID: "e3", OverallScore: 2.0},
		},
	})

	require.NoError(t, err)
	assert.Empty(t, resp.Patterns)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 0, resp.Summary.TotalPatterns)

	mocks.explainability.AssertExpectations(t)
	mocks.patterns.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestGenerateNudge(t *testing.T) {
	companyID := uuid.Must(uuid.NewV7())

	t.Run("resolves template", func(t *testing.T) {
		svc, mocks := newBiasService()

		mocks.templates.On("Resolve", mock.Anything, companyID, models.BiasHalo, models.SeverityMedium).
			Return(&models.NudgeTemplate{NudgeTitle: "Rate each dimension on its own", NudgeMessage: "..."}, nil)

		nudge, err := svc.GenerateNudge(context.Background(), &models.BiasDetectorRequest{
			Action:    models.ActionGenerateNudge,
			CompanyID: companyID,
			BiasType:  models.BiasHalo,
			Severity:  models.SeverityMedium,
		})

		require.NoError(t, err)
		assert.Equal(t, "Rate each dimension on its own", nudge.Title)
	})

	t.Run("returns nil without template", func(t *testing.T) {
		svc, mocks := newBiasService()

		mocks.templates.On("Resolve", mock.Anything, companyID, models.BiasRecency, models.SeverityLow).
			Return(nil, nil)

		nudge, err := svc.GenerateNudge(context.Background(), &models.BiasDetectorRequest{
			CompanyID: companyID,
			BiasType:  models.BiasRecency,
			Severity:  models.SeverityLow,
		})

		require.NoError(t, err)
		assert.Nil(t, nudge)
	})

	t.Run("rejects unknown bias type", func(t *testing.T) {
		svc, _ := newBiasService()

		_, err := svc.GenerateNudge(context.Background(), &models.BiasDetectorRequest{
			CompanyID: companyID,
			BiasType:  "vibes",
			Severity:  models.SeverityLow,
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("rejects unknown severity", func(t *testing.T) {
		svc, _ := newBiasService()

		_, err := svc.GenerateNudge(context.Background(), &models.BiasDetectorRequest{
			CompanyID: companyID,
			BiasType:  models.BiasHalo,
			Severity:  "extreme",
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}
