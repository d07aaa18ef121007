package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hrplus/talent-hub/internal/apperrors"
	"github.com/hrplus/talent-hub/internal/api/response"
	"github.com/hrplus/talent-hub/internal/models"
)

// BiasDetectionService defines the interface for bias detection business logic.
type BiasDetectionService interface {
	DetectBias(ctx context.Context, req *models.BiasDetectorRequest) (*models.DetectBiasResponse, error)
	GenerateNudge(ctx context.Context, req *models.BiasDetectorRequest) (*models.Nudge, error)
}

// BiasHandler handles the bias-detector function endpoint.
type BiasHandler struct {
	service BiasDetectionService
}

// NewBiasHandler creates a new bias detector handler.
func NewBiasHandler(service BiasDetectionService) *BiasHandler {
	return &BiasHandler{service: service}
}

// respondFunctionError writes the `{"error": ...}` body the function endpoints
// have always returned, as opposed to the problem responses used elsewhere.
func respondFunctionError(w http.ResponseWriter, statusCode int, message string) {
	response.RespondJSON(w, statusCode, map[string]string{"error": message})
}

// Handle handles POST /v1/functions/bias-detector. The action field in the
// body selects the operation.
func (h *BiasHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.BiasDetectorRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		slog.Warn("Invalid request body", "method", r.Method, "path", r.URL.Path, "error", err)
		respondFunctionError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, ok := models.ValidBiasActions[req.Action]; !ok {
		respondFunctionError(w, http.StatusBadRequest, fmt.Sprintf("Unknown action: %s", req.Action))
		return
	}

	if req.CompanyID == uuid.Nil {
		respondFunctionError(w, http.StatusBadRequest, "companyId is required")
		return
	}

	if req.Action == models.ActionGenerateNudge {
		h.generateNudge(w, r, &req)
		return
	}

	if req.ManagerID == uuid.Nil {
		respondFunctionError(w, http.StatusBadRequest, "managerId is required")
		return
	}

	result, err := h.service.DetectBias(r.Context(), &req)
	if err != nil {
		slog.Error("Bias detection failed",
			"action", req.Action,
			"manager_id", req.ManagerID,
			"error", err,
		)
		respondFunctionError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

func (h *BiasHandler) generateNudge(w http.ResponseWriter, r *http.Request, req *models.BiasDetectorRequest) {
	nudge, err := h.service.GenerateNudge(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			respondFunctionError(w, http.StatusBadRequest, err.Error())
			return
		}

		slog.Error("Nudge generation failed",
			"bias_type", req.BiasType,
			"severity", req.Severity,
			"error", err,
		)
		respondFunctionError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]*models.Nudge{"nudge": nudge})
}
