package services

import (
	"context"
	"errors"

	"github.com/username/finanzapp/backend/src/models"
	"github.com/username/finanzapp/backend/src/processors"
)

// Define common service errors
var (
	// ErrAssistantNotConfigured is returned by every AI-backed operation when
	// no API key is configured. Handlers map it to a dedicated status so the
	// frontend can distinguish "feature off" from "extraction failed".
	ErrAssistantNotConfigured = errors.New("assistant api key is not configured")

	// ErrExtractionFailed means the assistant answered but no usable
	// structured data could be recovered from the response.
	ErrExtractionFailed = errors.New("could not extract structured data from assistant response")

	// ErrEmptyReport means the assistant returned no narrative text.
	ErrEmptyReport = errors.New("assistant returned an empty report")

	// ErrTooManyStatementFiles is returned when a batch exceeds the configured
	// per-request file limit. The whole batch is rejected, nothing is
	// processed partially.
	ErrTooManyStatementFiles = errors.New("too many statement files in one batch")
)

// AssistantService is the boundary to the AI collaborator. All three
// operations are stateless request/response calls.
type AssistantService interface {
	ScanReceipt(ctx context.Context, imageBase64, mediaType string) (*models.ReceiptExtraction, error)
	ExtractStatement(ctx context.Context, statementText string) (*models.StatementExtraction, error)
	GenerateMonthlyReport(ctx context.Context, payload ReportPayload) (string, error)
}

// ReportPayload is the full financial picture for one month, assembled
// server-side and handed to the assistant for narrative generation.
type ReportPayload struct {
	Month        int                       `json:"month"`
	Year         int                       `json:"year"`
	Totals       processors.MonthlyTotals  `json:"totals"`
	Transactions []models.Transaction      `json:"transactions"`
	Budgets      []models.Budget           `json:"budgets"`
	SavingsGoals []models.SavingsGoal      `json:"savings_goals"`
	Debts        []models.Debt             `json:"debts"`
	Series       []processors.PeriodTotals `json:"monthly_series"`
}

// MonthlyReportResult is the report handed to the client, with the numeric
// totals the narrative was generated from.
type MonthlyReportResult struct {
	Month  int                      `json:"month"`
	Year   int                      `json:"year"`
	Report string                   `json:"report"`
	Totals processors.MonthlyTotals `json:"totals"`
	Cached bool                     `json:"cached"`
}

// ReportService assembles the monthly payload, asks the assistant for the
// narrative and caches the result per (user, month, year).
type ReportService interface {
	GetMonthlyReport(ctx context.Context, userID int64, month, year int) (*MonthlyReportResult, error)
	InvalidateUserCache(userID int64)
}

// StatementFile is one uploaded PDF in a batch, already read into memory.
type StatementFile struct {
	Name     string
	Data     []byte
	Password string
}

// StatementService runs extraction over a batch of statement PDFs.
type StatementService interface {
	ProcessBatch(ctx context.Context, files []StatementFile) ([]models.StatementFileResult, error)
}
