package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finanzapp/backend/src/logger"
	"github.com/username/finanzapp/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestCSRFMiddleware(t *testing.T) {
	handler := CSRFMiddleware([]byte("test-key"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("safe methods are exempt", func(t *testing.T) {
		for _, method := range []string{"GET", "HEAD", "OPTIONS"} {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(method, "/api/transactions", nil))
			assert.Equal(t, http.StatusNoContent, rec.Code, "method %s", method)
		}
	})

	t.Run("post without token is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/transactions", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("post with matching cookie and header passes", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/transactions", nil)
		req.Header.Set("X-CSRF-Token", "token-value")
		req.AddCookie(&http.Cookie{Name: "_gorilla_csrf", Value: "token-value"})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("post with mismatched token is rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/transactions", nil)
		req.Header.Set("X-CSRF-Token", "token-value")
		req.AddCookie(&http.Cookie{Name: "_gorilla_csrf", Value: "different-value"})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestGetCSRFToken(t *testing.T) {
	rec := httptest.NewRecorder()
	GetCSRFToken(rec, httptest.NewRequest("GET", "/api/auth/csrf", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get("X-CSRF-Token")
	assert.NotEmpty(t, token)

	var cookieValue string
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "_gorilla_csrf" {
			cookieValue = cookie.Value
		}
	}
	assert.Equal(t, token, cookieValue)
}

func TestParseMonthYearQuery(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		_, _, provided, err := parseMonthYearQuery(httptest.NewRequest("GET", "/api/transactions", nil))
		require.NoError(t, err)
		assert.False(t, provided)
	})

	t.Run("present and valid", func(t *testing.T) {
		month, year, provided, err := parseMonthYearQuery(httptest.NewRequest("GET", "/api/transactions?month=3&year=2026", nil))
		require.NoError(t, err)
		assert.True(t, provided)
		assert.Equal(t, 3, month)
		assert.Equal(t, 2026, year)
	})

	t.Run("partial pair", func(t *testing.T) {
		_, _, _, err := parseMonthYearQuery(httptest.NewRequest("GET", "/api/transactions?month=3", nil))
		assert.Error(t, err)
	})

	t.Run("out of range", func(t *testing.T) {
		_, _, _, err := parseMonthYearQuery(httptest.NewRequest("GET", "/api/transactions?month=13&year=2026", nil))
		assert.Error(t, err)
	})

	t.Run("not integers", func(t *testing.T) {
		_, _, _, err := parseMonthYearQuery(httptest.NewRequest("GET", "/api/transactions?month=march&year=2026", nil))
		assert.Error(t, err)
	})
}

func TestParseIDParam(t *testing.T) {
	newRequest := func(id string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		req := httptest.NewRequest("GET", "/api/debts/"+id, nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := parseIDParam(newRequest("42"), "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, invalid := range []string{"0", "-1", "abc", ""} {
		_, err := parseIDParam(newRequest(invalid), "id")
		assert.Error(t, err, "id %q", invalid)
	}
}

func TestValidateTransactionRequest(t *testing.T) {
	valid := transactionRequest{
		Date:        "2026-03-15",
		Type:        "expense",
		Category:    "Food",
		Description: "  <b>Corner bakery</b>  ",
		Amount:      decimal.NewFromFloat(42.50),
	}

	var tx models.Transaction
	require.NoError(t, validateTransactionRequest(&valid, &tx))
	assert.Equal(t, "2026-03-15", tx.Date)
	assert.Equal(t, models.TypeExpense, tx.Type)
	assert.Equal(t, "Food", tx.Category)
	assert.Equal(t, "Corner bakery", tx.Description)
	assert.Equal(t, "42.5", tx.Amount.String())

	t.Run("bad date", func(t *testing.T) {
		req := valid
		req.Date = "15/03/2026"
		assert.Error(t, validateTransactionRequest(&req, &models.Transaction{}))
	})

	t.Run("bad type", func(t *testing.T) {
		req := valid
		req.Type = "transfer"
		assert.Error(t, validateTransactionRequest(&req, &models.Transaction{}))
	})

	t.Run("category outside the set is rejected, not coerced", func(t *testing.T) {
		req := valid
		req.Category = "Groceries"
		assert.Error(t, validateTransactionRequest(&req, &models.Transaction{}))
	})

	t.Run("income category on expense", func(t *testing.T) {
		req := valid
		req.Category = "Salary"
		assert.Error(t, validateTransactionRequest(&req, &models.Transaction{}))
	})

	t.Run("zero amount", func(t *testing.T) {
		req := valid
		req.Amount = decimal.Zero
		assert.Error(t, validateTransactionRequest(&req, &models.Transaction{}))
	})
}
