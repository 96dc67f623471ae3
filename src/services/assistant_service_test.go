package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finanzapp/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// newAssistantStub returns a messages-API stub that always replies with the
// given text, and the service wired to it.
func newAssistantStub(t *testing.T, replyText string) (*httptest.Server, *assistantServiceImpl) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": replyText}},
		})
	}))
	t.Cleanup(server.Close)

	service := &assistantServiceImpl{
		httpClient: http.Client{Timeout: 5 * time.Second},
		apiKey:     "test-key",
		baseURL:    server.URL,
		model:      "test-model",
		maxTokens:  1024,
	}
	return server, service
}

func TestScanReceipt_CoercesLooseFields(t *testing.T) {
	// Prose around the JSON, an unknown category, an unparseable date and an
	// empty description must all be absorbed at this boundary.
	reply := `Here is the extracted data:
{"date": "not-a-date", "category": "Groceries", "description": "", "amount": "$1,234.56"}
Let me know if you need anything else.`
	_, service := newAssistantStub(t, reply)

	extraction, err := service.ScanReceipt(context.Background(), "aW1hZ2U=", "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "Other", extraction.Category)
	assert.Equal(t, "Receipt purchase", extraction.Description)
	assert.Equal(t, "1234.56", extraction.Amount.String())
	assert.Equal(t, time.Now().Format("2006-01-02"), extraction.Date)
}

func TestScanReceipt_KeepsValidFields(t *testing.T) {
	reply := `{"date": "2026-03-15", "category": "Food", "description": "Corner bakery", "amount": 42.5}`
	_, service := newAssistantStub(t, reply)

	extraction, err := service.ScanReceipt(context.Background(), "aW1hZ2U=", "image/png")
	require.NoError(t, err)

	assert.Equal(t, "2026-03-15", extraction.Date)
	assert.Equal(t, "Food", extraction.Category)
	assert.Equal(t, "Corner bakery", extraction.Description)
	assert.Equal(t, "42.5", extraction.Amount.String())
}

func TestScanReceipt_RejectsNonPositiveAmount(t *testing.T) {
	for _, reply := range []string{
		`{"date": "2026-03-15", "category": "Food", "description": "x", "amount": 0}`,
		`{"date": "2026-03-15", "category": "Food", "description": "x", "amount": -12}`,
		`{"date": "2026-03-15", "category": "Food", "description": "x"}`,
	} {
		_, service := newAssistantStub(t, reply)
		_, err := service.ScanReceipt(context.Background(), "aW1hZ2U=", "image/jpeg")
		assert.ErrorIs(t, err, ErrExtractionFailed)
	}
}

func TestScanReceipt_NoJSONInResponse(t *testing.T) {
	_, service := newAssistantStub(t, "I could not read this image, sorry.")

	_, err := service.ScanReceipt(context.Background(), "aW1hZ2U=", "image/jpeg")
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestScanReceipt_NotConfigured(t *testing.T) {
	service := &assistantServiceImpl{apiKey: ""}

	_, err := service.ScanReceipt(context.Background(), "aW1hZ2U=", "image/jpeg")
	assert.ErrorIs(t, err, ErrAssistantNotConfigured)
}

func TestExtractStatement(t *testing.T) {
	reply := `{"bank_name": "Banco Azteca", "card_last_four": "**** 9931", "total_owed": "15,000.75",
"minimum_payment": 1500, "payment_deadline": "2026-04-05", "monthly_interest_rate": 4.5,
"annual_interest_rate": 54, "period_interest": 675.25, "overdue_balance": 0, "cash_advances": 0}`
	_, service := newAssistantStub(t, reply)

	extraction, err := service.ExtractStatement(context.Background(), "statement text")
	require.NoError(t, err)

	assert.Equal(t, "Banco Azteca", extraction.BankName)
	assert.Equal(t, "9931", extraction.CardLastFour)
	assert.Equal(t, "15000.75", extraction.TotalOwed.String())
	assert.Equal(t, "1500", extraction.MinimumPayment.String())
	assert.Equal(t, "2026-04-05", extraction.PaymentDeadline)
	assert.InDelta(t, 4.5, extraction.MonthlyInterestRate, 1e-9)
	assert.InDelta(t, 54, extraction.AnnualInterestRate, 1e-9)
	assert.Equal(t, "675.25", extraction.PeriodInterest.String())
	assert.True(t, extraction.OverdueBalance.IsZero())
}

func TestExtractStatement_EmptyResultFails(t *testing.T) {
	// No bank name and a zero balance means the model found nothing useful.
	reply := `{"bank_name": "", "card_last_four": "", "total_owed": 0, "minimum_payment": 0,
"payment_deadline": "", "monthly_interest_rate": 0, "annual_interest_rate": 0,
"period_interest": 0, "overdue_balance": 0, "cash_advances": 0}`
	_, service := newAssistantStub(t, reply)

	_, err := service.ExtractStatement(context.Background(), "statement text")
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestGenerateMonthlyReport(t *testing.T) {
	_, service := newAssistantStub(t, "  Overview\nYou spent less than you earned this month.\n")

	report, err := service.GenerateMonthlyReport(context.Background(), ReportPayload{Month: 3, Year: 2026})
	require.NoError(t, err)
	assert.Equal(t, "Overview\nYou spent less than you earned this month.", report)
}

func TestGenerateMonthlyReport_EmptyReply(t *testing.T) {
	_, service := newAssistantStub(t, "   \n  ")

	_, err := service.GenerateMonthlyReport(context.Background(), ReportPayload{Month: 3, Year: 2026})
	assert.ErrorIs(t, err, ErrEmptyReport)
}

func TestComplete_APIErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "rate_limit_error", "message": "Too many requests"},
		})
	}))
	defer server.Close()

	service := &assistantServiceImpl{
		httpClient: http.Client{Timeout: 5 * time.Second},
		apiKey:     "test-key",
		baseURL:    server.URL,
		model:      "test-model",
		maxTokens:  1024,
	}

	_, err := service.GenerateMonthlyReport(context.Background(), ReportPayload{Month: 1, Year: 2026})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate_limit_error")
	assert.Contains(t, err.Error(), "Too many requests")
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, false},
		{"wrapped in prose", "Sure!\n{\"a\": 1}\nDone.", `{"a": 1}`, false},
		{"nested braces", `x {"a": {"b": 2}} y`, `{"a": {"b": 2}}`, false},
		{"no object", "nothing here", "", true},
		{"reversed braces", "} nope {", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONObject(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLooseDecimal(t *testing.T) {
	fields, err := decodeLooseObject(`{"n": 12.34, "s": "$1,234.56", "neg": "-50", "junk": "n/a", "b": true}`)
	require.NoError(t, err)

	assert.Equal(t, "12.34", looseDecimal(fields["n"]).String())
	assert.Equal(t, "1234.56", looseDecimal(fields["s"]).String())
	assert.Equal(t, "-50", looseDecimal(fields["neg"]).String())
	assert.True(t, looseDecimal(fields["junk"]).IsZero())
	assert.True(t, looseDecimal(fields["b"]).IsZero())
	assert.True(t, looseDecimal(fields["missing"]).IsZero())
}

func TestLooseString(t *testing.T) {
	fields, err := decodeLooseObject(`{"s": "text", "n": 1234, "b": false}`)
	require.NoError(t, err)

	assert.Equal(t, "text", looseString(fields["s"]))
	assert.Equal(t, "1234", looseString(fields["n"]))
	assert.Equal(t, "", looseString(fields["b"]))
	assert.Equal(t, "", looseString(fields["missing"]))
}
