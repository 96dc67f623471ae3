package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/username/finanzapp/backend/src/database"
	"github.com/username/finanzapp/backend/src/logger"
	"github.com/username/finanzapp/backend/src/model"
	"github.com/username/finanzapp/backend/src/models"
	"github.com/username/finanzapp/backend/src/processors"
	"github.com/username/finanzapp/backend/src/security/validation"
	"github.com/username/finanzapp/backend/src/services"
)

type BudgetHandler struct {
	aggregator    *processors.AggregationProcessor
	reportService services.ReportService
}

func NewBudgetHandler(aggregator *processors.AggregationProcessor, reportService services.ReportService) *BudgetHandler {
	return &BudgetHandler{aggregator: aggregator, reportService: reportService}
}

func (h *BudgetHandler) HandleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	budgets, err := model.ListBudgets(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list budgets", "userID", userID, "error", err)
		sendJSONError(w, "Failed to fetch budgets", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(budgets)
}

// HandleUpsertBudget creates the budget for a category or replaces its limit
// when one already exists. There is never more than one budget per category.
func (h *BudgetHandler) HandleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Category     string          `json:"category"`
		MonthlyLimit decimal.Decimal `json:"monthly_limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Budgets track spending, so the category set is the expense set.
	if err := validation.ValidateCategory(models.TypeExpense, req.Category); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePositiveAmount(req.MonthlyLimit, "monthly_limit"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	budget := models.Budget{
		UserID:       userID,
		Category:     req.Category,
		MonthlyLimit: req.MonthlyLimit,
	}
	if err := model.UpsertBudget(database.DB, &budget); err != nil {
		logger.L.Error("Failed to upsert budget", "userID", userID, "category", req.Category, "error", err)
		sendJSONError(w, "Failed to save budget", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(budget)
}

func (h *BudgetHandler) HandleUpdateBudget(w http.ResponseWriter, r *http.Request) {
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
		MonthlyLimit decimal.Decimal `json:"monthly_limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePositiveAmount(req.MonthlyLimit, "monthly_limit"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := model.UpdateBudgetLimit(database.DB, userID, id, req.MonthlyLimit.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Budget not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to update budget", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to update budget", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidateUserCache(userID)

	budget, err := model.GetBudgetByID(database.DB, userID, id)
	if err != nil {
		logger.L.Error("Failed to reload budget after update", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to update budget", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(budget)
}

func (h *BudgetHandler) HandleDeleteBudget(w http.ResponseWriter, r *http.Request) {
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

	if err := model.DeleteBudget(database.DB, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Budget not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete budget", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to delete budget", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidateUserCache(userID)

	w.WriteHeader(http.StatusNoContent)
}

// BudgetUsage pairs a budget with the month's actual spend in its category.
type BudgetUsage struct {
	Budget    models.Budget   `json:"budget"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Percent   float64         `json:"percent"`
}

// HandleGetBudgetUsage returns every budget with the spend, remainder and
// percentage for the requested month. A category with no transactions shows
// zero spend.
func (h *BudgetHandler) HandleGetBudgetUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	month, year, provided, err := parseMonthYearQuery(r)
	if err != nil || !provided {
		sendJSONError(w, "month and year query parameters are required", http.StatusBadRequest)
		return
	}

	budgets, err := model.ListBudgets(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list budgets for usage", "userID", userID, "error", err)
		sendJSONError(w, "Failed to fetch budget usage", http.StatusInternalServerError)
		return
	}

	transactions, err := model.ListTransactions(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list transactions for budget usage", "userID", userID, "error", err)
		sendJSONError(w, "Failed to fetch budget usage", http.StatusInternalServerError)
		return
	}

	spentByCategory := h.aggregator.CategoryTotals(transactions, month, year, models.TypeExpense)

	usage := make([]BudgetUsage, 0, len(budgets))
	for _, budget := range budgets {
		spent := spentByCategory[budget.Category] // zero when absent
		entry := BudgetUsage{
			Budget:    budget,
			Spent:     spent,
			Remaining: budget.MonthlyLimit.Sub(spent),
		}
		if budget.MonthlyLimit.IsPositive() {
			pct := spent.Div(budget.MonthlyLimit).Mul(decimal.NewFromInt(100))
			entry.Percent = pct.InexactFloat64()
		}
		usage = append(usage, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(usage)
}
