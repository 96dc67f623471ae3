package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/username/finanzapp/backend/src/database"
	"github.com/username/finanzapp/backend/src/logger"
	"github.com/username/finanzapp/backend/src/model"
	"github.com/username/finanzapp/backend/src/models"
	"github.com/username/finanzapp/backend/src/security/validation"
	"github.com/username/finanzapp/backend/src/services"
)

type TransactionHandler struct {
	reportService services.ReportService
}

func NewTransactionHandler(reportService services.ReportService) *TransactionHandler {
	return &TransactionHandler{reportService: reportService}
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	idStr := chi.URLParam(r, name)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s '%s'", name, idStr)
	}
	return id, nil
}

// parseMonthYearQuery reads optional month/year query parameters. Both must be
// present together.
func parseMonthYearQuery(r *http.Request) (month, year int, provided bool, err error) {
	monthStr := r.URL.Query().Get("month")
	yearStr := r.URL.Query().Get("year")
	if monthStr == "" && yearStr == "" {
		return 0, 0, false, nil
	}
	month, errM := strconv.Atoi(monthStr)
	year, errY := strconv.Atoi(yearStr)
	if errM != nil || errY != nil {
		return 0, 0, false, fmt.Errorf("month and year must both be integers")
	}
	if err := validation.ValidateMonthYear(month, year); err != nil {
		return 0, 0, false, err
	}
	return month, year, true, nil
}

type transactionRequest struct {
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// validateTransactionRequest normalizes and checks a create/update body and
// fills the given transaction with the result.
func validateTransactionRequest(req *transactionRequest, t *models.Transaction) error {
	if _, err := validation.ValidateDateString(req.Date, "date"); err != nil {
		return err
	}
	txType, err := validation.ValidateTransactionType(req.Type)
	if err != nil {
		return err
	}
	if err := validation.ValidateCategory(txType, req.Category); err != nil {
		return err
	}
	if err := validation.ValidatePositiveAmount(req.Amount, "amount"); err != nil {
		return err
	}
	description := validation.SanitizeText(strings.TrimSpace(req.Description))
	if err := validation.ValidateStringMaxLength(description, validation.MaxDescriptionLength, "description"); err != nil {
		return err
	}

	t.Date = strings.TrimSpace(req.Date)
	t.Type = txType
	t.Category = req.Category
	t.Description = description
	t.Amount = req.Amount
	return nil
}

func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	month, year, provided, err := parseMonthYearQuery(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var transactions []models.Transaction
	if provided {
		transactions, err = model.ListTransactionsForPeriod(database.DB, userID, fmt.Sprintf("%04d-%02d", year, month))
	} else {
		transactions, err = model.ListTransactions(database.DB, userID)
	}
	if err != nil {
		logger.L.Error("Failed to list transactions", "userID", userID, "error", err)
		sendJSONError(w, "Failed to fetch transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}

func (h *TransactionHandler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	transaction := models.Transaction{UserID: userID}
	if err := validateTransactionRequest(&req, &transaction); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := model.CreateTransaction(database.DB, &transaction); err != nil {
		logger.L.Error("Failed to create transaction", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create transaction", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(transaction)
}

func (h *TransactionHandler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
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

	existing, err := model.GetTransactionByID(database.DB, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to fetch transaction for update", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to update transaction", http.StatusInternalServerError)
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validateTransactionRequest(&req, existing); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := model.UpdateTransaction(database.DB, existing); err != nil {
		logger.L.Error("Failed to update transaction", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to update transaction", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(existing)
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
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

	if err := model.DeleteTransaction(database.DB, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete transaction", "userID", userID, "id", id, "error", err)
		sendJSONError(w, "Failed to delete transaction", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidateUserCache(userID)

	w.WriteHeader(http.StatusNoContent)
}
