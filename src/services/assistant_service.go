package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/finanzapp/backend/src/config"
	"github.com/username/finanzapp/backend/src/logger"
	"github.com/username/finanzapp/backend/src/models"
	"github.com/username/finanzapp/backend/src/security/validation"
)

const anthropicAPIVersion = "2023-06-01"

// --- API Request/Response Structs ---

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *mediaSource `json:"source,omitempty"`
}

type mediaSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Service Implementation ---

type assistantServiceImpl struct {
	httpClient http.Client
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
}

func NewAssistantService() AssistantService {
	return &assistantServiceImpl{
		httpClient: http.Client{Timeout: 90 * time.Second},
		apiKey:     config.Cfg.AnthropicAPIKey,
		baseURL:    strings.TrimRight(config.Cfg.AnthropicBaseURL, "/"),
		model:      config.Cfg.AnthropicModel,
		maxTokens:  config.Cfg.AssistantMaxTokens,
	}
}

// complete sends one user message to the messages API and returns the
// concatenated text blocks of the reply.
func (s *assistantServiceImpl) complete(ctx context.Context, blocks []contentBlock) (string, error) {
	if s.apiKey == "" {
		return "", ErrAssistantNotConfigured
	}

	payload := anthropicRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: blocks}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode assistant request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build assistant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read assistant response: %w", err)
	}

	var decoded anthropicResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode assistant response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if decoded.Error != nil {
			logger.L.Warn("Assistant API returned an error", "status", resp.StatusCode, "type", decoded.Error.Type, "message", decoded.Error.Message)
			return "", fmt.Errorf("assistant api error (%s): %s", decoded.Error.Type, decoded.Error.Message)
		}
		return "", fmt.Errorf("assistant api returned status %d", resp.StatusCode)
	}

	var sb strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// --- Receipt Scanning ---

func receiptPrompt() string {
	return fmt.Sprintf(`Analyze this receipt image and extract the purchase data.

Respond with ONLY a JSON object, no other text, in exactly this shape:
{"date": "YYYY-MM-DD", "category": "...", "description": "...", "amount": 0}

Rules:
- "category" must be one of: %s. If none fits, use "%s".
- "description" is a short merchant or purchase description.
- "amount" is the receipt total as a plain number without currency symbols or thousands separators.
- If the date is not visible, use today's date.`,
		strings.Join(models.ExpenseCategories, ", "), models.FallbackCategory)
}

func (s *assistantServiceImpl) ScanReceipt(ctx context.Context, imageBase64, mediaType string) (*models.ReceiptExtraction, error) {
	blocks := []contentBlock{
		{Type: "image", Source: &mediaSource{Type: "base64", MediaType: mediaType, Data: imageBase64}},
		{Type: "text", Text: receiptPrompt()},
	}
	text, err := s.complete(ctx, blocks)
	if err != nil {
		return nil, err
	}

	raw, err := extractJSONObject(text)
	if err != nil {
		logger.L.Warn("No JSON object found in receipt scan response", "responseLength", len(text))
		return nil, ErrExtractionFailed
	}

	fields, err := decodeLooseObject(raw)
	if err != nil {
		logger.L.Warn("Failed to decode receipt scan JSON", "error", err)
		return nil, ErrExtractionFailed
	}

	amount := looseDecimal(fields["amount"])
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: receipt amount missing or not positive", ErrExtractionFailed)
	}

	date := strings.TrimSpace(looseString(fields["date"]))
	if _, parseErr := time.Parse("2006-01-02", date); parseErr != nil {
		date = time.Now().Format("2006-01-02")
	}

	description := validation.SanitizeText(validation.StripUnprintable(looseString(fields["description"])))
	if strings.TrimSpace(description) == "" {
		description = "Receipt purchase"
	}

	extraction := &models.ReceiptExtraction{
		Date:        date,
		Category:    models.NormalizeCategory(models.TypeExpense, looseString(fields["category"])),
		Description: description,
		Amount:      amount,
	}
	logger.L.Info("Receipt scanned", "category", extraction.Category, "amount", extraction.Amount)
	return extraction, nil
}

// --- Statement Extraction ---

const statementPrompt = `Analyze this credit card statement text and extract its key figures.

Respond with ONLY a JSON object, no other text, in exactly this shape:
{"bank_name": "...", "card_last_four": "...", "total_owed": 0, "minimum_payment": 0, "payment_deadline": "YYYY-MM-DD", "monthly_interest_rate": 0, "annual_interest_rate": 0, "period_interest": 0, "overdue_balance": 0, "cash_advances": 0}

Rules:
- Interest rates are percentages (e.g. 4.5 for 4.5%), monthly_interest_rate per month and annual_interest_rate per year.
- All monetary fields are plain numbers without currency symbols or thousands separators.
- Use 0 for monetary fields that do not appear on the statement and "" for text fields you cannot find.

Statement text:
`

func (s *assistantServiceImpl) ExtractStatement(ctx context.Context, statementText string) (*models.StatementExtraction, error) {
	blocks := []contentBlock{{Type: "text", Text: statementPrompt + statementText}}
	text, err := s.complete(ctx, blocks)
	if err != nil {
		return nil, err
	}

	raw, err := extractJSONObject(text)
	if err != nil {
		logger.L.Warn("No JSON object found in statement extraction response", "responseLength", len(text))
		return nil, ErrExtractionFailed
	}

	fields, err := decodeLooseObject(raw)
	if err != nil {
		logger.L.Warn("Failed to decode statement extraction JSON", "error", err)
		return nil, ErrExtractionFailed
	}

	extraction := &models.StatementExtraction{
		BankName:            validation.SanitizeText(looseString(fields["bank_name"])),
		CardLastFour:        validation.SanitizeNumericString(looseString(fields["card_last_four"])),
		TotalOwed:           looseDecimal(fields["total_owed"]),
		MinimumPayment:      looseDecimal(fields["minimum_payment"]),
		PaymentDeadline:     strings.TrimSpace(looseString(fields["payment_deadline"])),
		MonthlyInterestRate: looseFloat(fields["monthly_interest_rate"]),
		AnnualInterestRate:  looseFloat(fields["annual_interest_rate"]),
		PeriodInterest:      looseDecimal(fields["period_interest"]),
		OverdueBalance:      looseDecimal(fields["overdue_balance"]),
		CashAdvances:        looseDecimal(fields["cash_advances"]),
	}

	if extraction.BankName == "" && extraction.TotalOwed.IsZero() {
		return nil, fmt.Errorf("%w: statement has no bank name and no balance", ErrExtractionFailed)
	}
	logger.L.Info("Statement extracted", "bank", extraction.BankName, "totalOwed", extraction.TotalOwed)
	return extraction, nil
}

// --- Monthly Report ---

const reportPromptHeader = `You are a personal finance advisor. Using the JSON data below, write a monthly financial report for the user in clear, friendly prose.

Cover: an overview of income vs expenses, spending by category against any budgets, progress on savings goals, the debt situation, and two or three concrete recommendations for next month. Use plain text with short section headings, no markdown tables. Amounts in the data are exact decimal values.

Data:
`

func (s *assistantServiceImpl) GenerateMonthlyReport(ctx context.Context, payload ReportPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode report payload: %w", err)
	}

	blocks := []contentBlock{{Type: "text", Text: reportPromptHeader + string(data)}}
	text, err := s.complete(ctx, blocks)
	if err != nil {
		return "", err
	}

	report := strings.TrimSpace(text)
	if report == "" {
		return "", ErrEmptyReport
	}
	return report, nil
}

// --- Response Coercion Helpers ---

// extractJSONObject returns the substring between the first '{' and the last
// '}' of a response, tolerating prose the model wraps around the JSON.
func extractJSONObject(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return s[start : end+1], nil
}

// decodeLooseObject decodes a JSON object keeping numbers as json.Number so
// monetary values never pass through float64.
func decodeLooseObject(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	fields := map[string]any{}
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func looseString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	}
	return ""
}

// looseDecimal coerces a field the model may return as a number or as a
// formatted string ("$1,234.56") into a decimal. Unparseable input yields
// zero; callers decide whether zero is acceptable for the field.
func looseDecimal(v any) decimal.Decimal {
	var s string
	switch value := v.(type) {
	case json.Number:
		s = value.String()
	case string:
		s = validation.SanitizeNumericString(value)
	default:
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func looseFloat(v any) float64 {
	f, _ := looseDecimal(v).Float64()
	return f
}
