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

// SignalProcessingService defines the interface for signal processing business logic.
type SignalProcessingService interface {
	ProcessCycle(ctx context.Context, companyID, cycleID uuid.UUID, force bool) (*models.ProcessCycleResult, error)
	ProcessEmployee(ctx context.Context, companyID, cycleID, employeeID uuid.UUID) (*models.ProcessCycleResult, error)
	RecalculateSignals(ctx context.Context, companyID, cycleID uuid.UUID) (*models.QueuedResult, error)
	GetSignalSummary(ctx context.Context, companyID, employeeID uuid.UUID) (*models.SignalSummary, error)
}

// SignalsHandler handles the signal-processor function endpoint.
type SignalsHandler struct {
	service SignalProcessingService
}

// NewSignalsHandler creates a new signal processor handler.
func NewSignalsHandler(service SignalProcessingService) *SignalsHandler {
	return &SignalsHandler{service: service}
}

// Handle handles POST /v1/functions/signal-processor. The action field in the
// body selects the operation.
func (h *SignalsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.SignalProcessorRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		slog.Warn("Invalid request body", "method", r.Method, "path", r.URL.Path, "error", err)
		respondFunctionError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, ok := models.ValidSignalActions[req.Action]; !ok {
		respondFunctionError(w, http.StatusBadRequest, fmt.Sprintf("Unknown action: %s", req.Action))
		return
	}

	if req.CompanyID == uuid.Nil {
		respondFunctionError(w, http.StatusBadRequest, "companyId is required")
		return
	}

	var (
		result any
		err    error
	)

	switch req.Action {
	case models.ActionProcessCycle:
		if req.CycleID == nil {
			respondFunctionError(w, http.StatusBadRequest, "cycleId is required")
			return
		}
		result, err = h.service.ProcessCycle(r.Context(), req.CompanyID, *req.CycleID, req.ForceRecalculate)

	case models.ActionProcessEmployee:
		if req.CycleID == nil || req.EmployeeID == nil {
			respondFunctionError(w, http.StatusBadRequest, "cycleId and employeeId are required")
			return
		}
		result, err = h.service.ProcessEmployee(r.Context(), req.CompanyID, *req.CycleID, *req.EmployeeID)

	case models.ActionRecalculateSignals:
		if req.CycleID == nil {
			respondFunctionError(w, http.StatusBadRequest, "cycleId is required")
			return
		}
		result, err = h.service.RecalculateSignals(r.Context(), req.CompanyID, *req.CycleID)

	case models.ActionGetSignalSummary:
		if req.EmployeeID == nil {
			respondFunctionError(w, http.StatusBadRequest, "employeeId is required")
			return
		}
		result, err = h.service.GetSignalSummary(r.Context(), req.CompanyID, *req.EmployeeID)
	}

	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondFunctionError(w, http.StatusNotFound, err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrValidation) {
			respondFunctionError(w, http.StatusBadRequest, err.Error())
			return
		}

		slog.Error("Signal processing failed",
			"action", req.Action,
			"company_id", req.CompanyID,
			"error", err,
		)
		respondFunctionError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
