package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/finanzapp/backend/src/database"
	"github.com/username/finanzapp/backend/src/logger"
	"github.com/username/finanzapp/backend/src/model"
	"github.com/username/finanzapp/backend/src/models"
	"github.com/username/finanzapp/backend/src/processors"
	"github.com/username/finanzapp/backend/src/security/validation"
	"github.com/username/finanzapp/backend/src/services"
)

type DebtHandler struct {
	projector     *processors.ProjectionProcessor
	reportService services.ReportService
}

func NewDebtHandler(projector *processors.ProjectionProcessor, reportService services.ReportService) *DebtHandler {
	return &DebtHandler{projector: projector, reportService: reportService}
}

type debtRequest struct {
	Name           string          `json:"name"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	MinimumPayment decimal.Decimal `json:"minimum_payment"`
	InterestRate   float64         `json:"interest_rate"`

	// Statement metadata, present when the debt is confirmed from an
	// extracted statement.
	BankName           *string          `json:"bank_name"`
	CardLastFour       *string          `json:"card_last_four"`
	AnnualInterestRate *float64         `json:"annual_interest_rate"`
	PaymentDeadline    *string          `json:"payment_deadline"`
	PeriodInterest     *decimal.Decimal `json:"period_interest"`
	OverdueBalance     *decimal.Decimal `json:"overdue_balance"`
	CashAdvances       *decimal.Decimal `json:"cash_advances"`
	Source             string           `json:"source"`
}

func validateDebtRequest(req *debtRequest, d *models.Debt) error {
	name := validation.SanitizeText(strings.TrimSpace(req.Name))
	if err := validation.ValidateStringNotEmpty(name, "name"); err != nil {
		return err
	}
	if err := validation.ValidateStringMaxLength(name, validation.MaxNameLength, "name"); err != nil {
		return err
	}
	if err := validation.ValidatePositiveAmount(req.OriginalAmount, "original_amount"); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeAmount(req.MinimumPayment, "minimum_payment"); err != nil {
		return err
	}
	if req.InterestRate < 0 {
		return errors.New("interest_rate cannot be negative")
	}

	d.Name = name
	d.OriginalAmount = req.OriginalAmount
	d.MinimumPayment = req.MinimumPayment
	d.InterestRate = req.InterestRate
	return nil
}

func (h *DebtHandler) HandleListDebts(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	debts, err := model.ListDebts(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list debts", "userID", userID, "error", err)
		sendJSONError(w, "Failed to fetch debts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(debts)
}

func (h *DebtHandler) HandleGetDebt(w http.ResponseWriter, r *http.Request) {
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

	debt, err := model.GetDebtByID(database.DB, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Debt not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to fetch debt", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to fetch debt", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(debt)
}

func (h *DebtHandler) HandleCreateDebt(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req debtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	debt := models.Debt{UserID: userID, Source: model.DebtSourceManual}
	if err := validateDebtRequest(&req, &debt); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Statement confirmation carries the extracted metadata along.
	if req.Source == model.DebtSourceStatement {
		debt.Source = model.DebtSourceStatement
		debt.BankName = sanitizeOptional(req.BankName)
		debt.CardLastFour = sanitizeOptional(req.CardLastFour)
		debt.AnnualInterestRate = req.AnnualInterestRate
		debt.PaymentDeadline = sanitizeOptional(req.PaymentDeadline)
		debt.PeriodInterest = req.PeriodInterest
		debt.OverdueBalance = req.OverdueBalance
		debt.CashAdvances = req.CashAdvances
	}

	if err := model.CreateDebt(database.DB, &debt); err != nil {
		logger.L.Error("Failed to create debt", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create debt", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(debt)
}

func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := validation.SanitizeText(strings.TrimSpace(*s))
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func (h *DebtHandler) HandleUpdateDebt(w http.ResponseWriter, r *http.Request) {
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

	existing, err := model.GetDebtByID(database.DB, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Debt not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to fetch debt for update", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to update debt", http.StatusInternalServerError)
		return
	}

	var req debtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validateDebtRequest(&req, existing); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := model.UpdateDebt(database.DB, existing); err != nil {
		logger.L.Error("Failed to update debt", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to update debt", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidateUserCache(userID)

	// Reload so the derived balance reflects the possibly changed original amount.
	updated, err := model.GetDebtByID(database.DB, userID, id)
	if err != nil {
		logger.L.Error("Failed to reload debt after update", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to update debt", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

func (h *DebtHandler) HandleDeleteDebt(w http.ResponseWriter, r *http.Request) {
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

	if err := model.DeleteDebt(database.DB, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Debt not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete debt", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to delete debt", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidateUserCache(userID)

	w.WriteHeader(http.StatusNoContent)
}

// HandleRecordPayment appends a payment to the debt's history and mirrors it
// as an expense transaction. The outstanding balance is derived on read, so
// the payment itself is a single insert.
func (h *DebtHandler) HandleRecordPayment(w http.ResponseWriter, r *http.Request) {
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

	payment, err := model.AddDebtPayment(database.DB, userID, id, req.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Debt not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to record debt payment", "userID", userID, "debtID", id, "error", err)
		sendJSONError(w, "Failed to record payment", http.StatusInternalServerError)
		return
	}

	debt, err := model.GetDebtByID(database.DB, userID, id)
	if err != nil {
		logger.L.Error("Failed to reload debt after payment", "userID", userID, "debtID", id, "error", err)
		sendJSONError(w, "Failed to record payment", http.StatusInternalServerError)
		return
	}

	// Mirror the payment in the expense ledger so monthly totals include it.
	expense := models.Transaction{
		UserID:      userID,
		Date:        time.Now().Format("2006-01-02"),
		Type:        models.TypeExpense,
		Category:    models.FallbackCategory,
		Description: "Payment: " + debt.Name,
		Amount:      req.Amount,
	}
	if err := model.CreateTransaction(database.DB, &expense); err != nil {
		// The payment fact is already recorded; surface the mirroring failure
		// in logs but do not roll back the payment.
		logger.L.Error("Failed to mirror debt payment as expense transaction", "userID", userID, "debtID", id, "error", err)
	}
	h.reportService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"payment": payment,
		"debt":    debt,
	})
}

// DebtProjection is the amortization projection for one debt at its current
// derived balance.
type DebtProjection struct {
	DebtID         int64                    `json:"debt_id"`
	CurrentBalance decimal.Decimal          `json:"current_balance"`
	MonthlyPayment decimal.Decimal          `json:"monthly_payment"`
	InterestRate   float64                  `json:"interest_rate"`
	Horizon        processors.PayoffHorizon `json:"horizon"`
	TotalInterest  decimal.Decimal          `json:"total_interest"`
}

// HandleGetDebtProjection computes the payoff horizon for a debt. Undefined
// and never-converging cases are sentinel fields in the payload, never errors.
// An optional monthly_payment query parameter overrides the stored minimum.
func (h *DebtHandler) HandleGetDebtProjection(w http.ResponseWriter, r *http.Request) {
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

	debt, err := model.GetDebtByID(database.DB, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Debt not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to fetch debt for projection", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to compute projection", http.StatusInternalServerError)
		return
	}

	payment := debt.MinimumPayment
	if override := r.URL.Query().Get("monthly_payment"); override != "" {
		parsed, err := decimal.NewFromString(override)
		if err != nil {
			sendJSONError(w, "monthly_payment must be a decimal number", http.StatusBadRequest)
			return
		}
		payment = parsed
	}

	horizon := h.projector.MonthsToPayoff(debt.CurrentBalance, payment, debt.InterestRate)
	projection := DebtProjection{
		DebtID:         debt.ID,
		CurrentBalance: debt.CurrentBalance,
		MonthlyPayment: payment,
		InterestRate:   debt.InterestRate,
		Horizon:        horizon,
		TotalInterest:  h.projector.TotalInterest(debt.CurrentBalance, payment, debt.InterestRate, horizon),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(projection)
}
