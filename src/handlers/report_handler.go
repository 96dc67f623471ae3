package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/finanzapp/backend/src/logger"
	"github.com/username/finanzapp/backend/src/security/validation"
	"github.com/username/finanzapp/backend/src/services"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// HandleGenerateMonthlyReport returns the AI-written narrative for one month.
// Generation is expensive, so results are cached in the service until the
// user's data changes.
func (h *ReportHandler) HandleGenerateMonthlyReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateMonthYear(req.Month, req.Year); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.reportService.GetMonthlyReport(r.Context(), userID, req.Month, req.Year)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAssistantNotConfigured):
			sendJSONError(w, "Monthly reports are not configured on this server", http.StatusServiceUnavailable)
		case errors.Is(err, services.ErrEmptyReport):
			sendJSONError(w, "The report could not be generated, please try again", http.StatusBadGateway)
		default:
			logger.L.Error("Failed to generate monthly report", "userID", userID, "month", req.Month, "year", req.Year, "error", err)
			sendJSONError(w, "Failed to generate monthly report", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
