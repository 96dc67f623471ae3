package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/username/finanzapp/backend/src/database"
	"github.com/username/finanzapp/backend/src/logger"
	"github.com/username/finanzapp/backend/src/model"
	"github.com/username/finanzapp/backend/src/processors"
)

type DashboardHandler struct {
	aggregator *processors.AggregationProcessor
}

func NewDashboardHandler(aggregator *processors.AggregationProcessor) *DashboardHandler {
	return &DashboardHandler{aggregator: aggregator}
}

// DashboardSummary is the month overview. Trend pointers are nil when the
// previous month had a zero baseline: there is no meaningful percentage and
// the frontend must omit the indicator instead of showing 0 or infinity.
type DashboardSummary struct {
	Month        int                      `json:"month"`
	Year         int                      `json:"year"`
	Totals       processors.MonthlyTotals `json:"totals"`
	IncomeTrend  *float64                 `json:"income_trend"`
	ExpenseTrend *float64                 `json:"expense_trend"`
	TotalDebt    decimal.Decimal          `json:"total_debt"`
	GoalCount    int                      `json:"goal_count"`
	GoalsReached int                      `json:"goals_reached"`
}

func (h *DashboardHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
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

	transactions, err := model.ListTransactions(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list transactions for dashboard", "userID", userID, "error", err)
		sendJSONError(w, "Failed to fetch dashboard summary", http.StatusInternalServerError)
		return
	}

	prevMonth, prevYear := month-1, year
	if prevMonth == 0 {
		prevMonth, prevYear = 12, year-1
	}

	totals := h.aggregator.MonthlyTotals(transactions, month, year)
	previous := h.aggregator.MonthlyTotals(transactions, prevMonth, prevYear)

	summary := DashboardSummary{
		Month:     month,
		Year:      year,
		Totals:    totals,
		TotalDebt: decimal.Zero,
	}
	if trend, ok := h.aggregator.TrendPercent(totals.Income, previous.Income); ok {
		summary.IncomeTrend = &trend
	}
	if trend, ok := h.aggregator.TrendPercent(totals.Expense, previous.Expense); ok {
		summary.ExpenseTrend = &trend
	}

	debts, err := model.ListDebts(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list debts for dashboard", "userID", userID, "error", err)
		sendJSONError(w, "Failed to fetch dashboard summary", http.StatusInternalServerError)
		return
	}
	for _, d := range debts {
		summary.TotalDebt = summary.TotalDebt.Add(d.CurrentBalance)
	}

	goals, err := model.ListSavingsGoals(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list goals for dashboard", "userID", userID, "error", err)
		sendJSONError(w, "Failed to fetch dashboard summary", http.StatusInternalServerError)
		return
	}
	summary.GoalCount = len(goals)
	for _, g := range goals {
		if g.Achieved() {
			summary.GoalsReached++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// HandleGetMonthlySeries returns per-month income/expense totals in
// chronological order, one entry per month with activity.
func (h *DashboardHandler) HandleGetMonthlySeries(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	transactions, err := model.ListTransactions(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list transactions for monthly series", "userID", userID, "error", err)
		sendJSONError(w, "Failed to fetch monthly series", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.aggregator.PeriodSeries(transactions))
}
