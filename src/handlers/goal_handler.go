package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/finanzapp/backend/src/database"
	"github.com/username/finanzapp/backend/src/logger"
	"github.com/username/finanzapp/backend/src/model"
	"github.com/username/finanzapp/backend/src/models"
	"github.com/username/finanzapp/backend/src/security/validation"
	"github.com/username/finanzapp/backend/src/services"
)

type GoalHandler struct {
	reportService services.ReportService
}

func NewGoalHandler(reportService services.ReportService) *GoalHandler {
	return &GoalHandler{reportService: reportService}
}

type goalRequest struct {
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      *string         `json:"deadline"`
}

func validateGoalRequest(req *goalRequest, g *models.SavingsGoal) error {
	name := validation.SanitizeText(strings.TrimSpace(req.Name))
	if err := validation.ValidateStringNotEmpty(name, "name"); err != nil {
		return err
	}
	if err := validation.ValidateStringMaxLength(name, validation.MaxNameLength, "name"); err != nil {
		return err
	}
	if err := validation.ValidatePositiveAmount(req.TargetAmount, "target_amount"); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeAmount(req.CurrentAmount, "current_amount"); err != nil {
		return err
	}
	if req.Deadline != nil && *req.Deadline != "" {
		if _, err := validation.ValidateDateString(*req.Deadline, "deadline"); err != nil {
			return err
		}
	}

	g.Name = name
	g.TargetAmount = req.TargetAmount
	g.CurrentAmount = req.CurrentAmount
	if req.Deadline != nil && *req.Deadline != "" {
		deadline := strings.TrimSpace(*req.Deadline)
		g.Deadline = &deadline
	} else {
		g.Deadline = nil
	}
	return nil
}

// goalResponse wraps a goal with its derived achieved flag.
type goalResponse struct {
	models.SavingsGoal
	Achieved bool `json:"achieved"`
}

func toGoalResponse(g models.SavingsGoal) goalResponse {
	return goalResponse{SavingsGoal: g, Achieved: g.Achieved()}
}

func (h *GoalHandler) HandleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	goals, err := model.ListSavingsGoals(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list savings goals", "userID", userID, "error", err)
		sendJSONError(w, "Failed to fetch savings goals", http.StatusInternalServerError)
		return
	}

	responses := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		responses = append(responses, toGoalResponse(g))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

func (h *GoalHandler) HandleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	goal := models.SavingsGoal{UserID: userID}
	if err := validateGoalRequest(&req, &goal); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := model.CreateSavingsGoal(database.DB, &goal); err != nil {
		logger.L.Error("Failed to create savings goal", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create savings goal", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toGoalResponse(goal))
}

func (h *GoalHandler) HandleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	existing, err := model.GetSavingsGoalByID(database.DB, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Savings goal not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to fetch savings goal for update", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to update savings goal", http.StatusInternalServerError)
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validateGoalRequest(&req, existing); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := model.UpdateSavingsGoal(database.DB, existing); err != nil {
		logger.L.Error("Failed to update savings goal", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to update savings goal", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toGoalResponse(*existing))
}

// HandleContributeToGoal adds a positive amount to a goal's current total.
// The goal may end up above its target; "achieved" stays derived.
func (h *GoalHandler) HandleContributeToGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePositiveAmount(req.Amount, "amount"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	goal, err := model.AddToSavingsGoal(database.DB, userID, id, req.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Savings goal not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to add contribution to savings goal", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to record contribution", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toGoalResponse(*goal))
}

func (h *GoalHandler) HandleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := model.DeleteSavingsGoal(database.DB, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Savings goal not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete savings goal", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to delete savings goal", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidateUserCache(userID)

	w.WriteHeader(http.StatusNoContent)
}
