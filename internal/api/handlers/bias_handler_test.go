package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrplus/talent-hub/internal/apperrors"
	"github.com/hrplus/talent-hub/internal/models"
)

// mockBiasService mocks BiasDetectionService for handler tests.
type mockBiasService struct {
	detectFunc func(ctx context.Context, req *models.BiasDetectorRequest) (*models.DetectBiasResponse, error)
	nudgeFunc  func(ctx context.Context, req *models.BiasDetectorRequest) (*models.Nudge, error)
}

func (m *mockBiasService) DetectBias(ctx context.Context, req *models.BiasDetectorRequest) (*models.DetectBiasResponse, error) {
	if m.detectFunc != nil {
		return m.detectFunc(ctx, req)
	}

	return &models.DetectBiasResponse{Patterns: []models.EnrichedPattern{}}, nil
}

func (m *mockBiasService) GenerateNudge(ctx context.Context, req *models.BiasDetectorRequest) (*models.Nudge, error) {
	if m.nudgeFunc != nil {
		return m.nudgeFunc(ctx, req)
	}

	return &models.Nudge{}, nil
}

func postBiasDetector(t *testing.T, h *BiasHandler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "http://test/v1/functions/bias-detector", bytes.NewReader(raw))
	rec := httptest.NewRecorder()

	h.Handle(rec, req)

	return rec
}

func TestBiasHandler_Handle(t *testing.T) {
	managerID := uuid.Must(uuid.NewV7()).String()
	companyID := uuid.Must(uuid.NewV7()).String()

	t.Run("dispatches analyze action to service", func(t *testing.T) {
		called := false
		mock := &mockBiasService{
			detectFunc: func(_ context.Context, req *models.BiasDetectorRequest) (*models.DetectBiasResponse, error) {
				called = true
				assert.Equal(t, models.ActionAnalyzeManagerPatterns, req.Action)
				assert.Len(t, req.Ratings, 3)

				return &models.DetectBiasResponse{
					Patterns: []models.EnrichedPattern{},
					Summary:  &models.PatternSummary{},
				}, nil
			},
		}
		h := NewBiasHandler(mock)

		rec := postBiasDetector(t, h, map[string]any{
			"action":    "analyze_manager_patterns",
			"managerId": managerID,
			"companyId": companyID,
			"ratings": []map[string]any{
				{"employeeId": "e1", "overallScore": 4.0},
				{"employeeId": "e2", "overallScore": 3.5},
				{"employeeId": "e3", "overallScore": 4.2},
			},
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, called)
	})

	t.Run("unknown action returns 400", func(t *testing.T) {
		h := NewBiasHandler(&mockBiasService{})

		rec := postBiasDetector(t, h, map[string]any{
			"action":    "do_something_else",
			"managerId": managerID,
			"companyId": companyID,
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body["error"], "Unknown action")
	})

	t.Run("missing managerId returns 400", func(t *testing.T) {
		h := NewBiasHandler(&mockBiasService{})

		rec := postBiasDetector(t, h, map[string]any{
			"action":    "detect_recency_bias",
			"companyId": companyID,
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing companyId returns 400", func(t *testing.T) {
		h := NewBiasHandler(&mockBiasService{})

		rec := postBiasDetector(t, h, map[string]any{
			"action":    "detect_recency_bias",
			"managerId": managerID,
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		h := NewBiasHandler(&mockBiasService{})

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/functions/bias-detector",
			bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()

		h.Handle(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("service failure returns 500", func(t *testing.T) {
		mock := &mockBiasService{
			detectFunc: func(context.Context, *models.BiasDetectorRequest) (*models.DetectBiasResponse, error) {
				return nil, errors.New("database down")
			},
		}
		h := NewBiasHandler(mock)

		rec := postBiasDetector(t, h, map[string]any{
			"action":    "analyze_manager_patterns",
			"managerId": managerID,
			"companyId": companyID,
		})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "An unexpected error occurred", body["error"])
	})

	t.Run("generate_nudge returns the nudge", func(t *testing.T) {
		mock := &mockBiasService{
			nudgeFunc: func(_ context.Context, req *models.BiasDetectorRequest) (*models.Nudge, error) {
				assert.Equal(t, models.BiasLeniency, req.BiasType)

				return &models.Nudge{Title: "Watch for leniency", Message: "..."}, nil
			},
		}
		h := NewBiasHandler(mock)

		rec := postBiasDetector(t, h, map[string]any{
			"action":    "generate_nudge",
			"companyId": companyID,
			"biasType":  "leniency",
			"severity":  "medium",
		})

		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]models.Nudge
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Watch for leniency", body["nudge"].Title)
	})

	t.Run("generate_nudge without template returns null", func(t *testing.T) {
		mock := &mockBiasService{
			nudgeFunc: func(context.Context, *models.BiasDetectorRequest) (*models.Nudge, error) {
				return nil, nil
			},
		}
		h := NewBiasHandler(mock)

		rec := postBiasDetector(t, h, map[string]any{
			"action":    "generate_nudge",
			"companyId": companyID,
			"biasType":  "recency",
			"severity":  "low",
		})

		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]*models.Nudge
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Nil(t, body["nudge"])
	})

	t.Run("generate_nudge validation error returns 400", func(t *testing.T) {
		mock := &mockBiasService{
			nudgeFunc: func(context.Context, *models.BiasDetectorRequest) (*models.Nudge, error) {
				return nil, apperrors.NewValidationError("biasType", "unknown bias type: vibes")
			},
		}
		h := NewBiasHandler(mock)

		rec := postBiasDetector(t, h, map[string]any{
			"action":    "generate_nudge",
			"companyId": companyID,
			"biasType":  "vibes",
			"severity":  "low",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
