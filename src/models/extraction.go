package models

import "github.com/shopspring/decimal"

// ReceiptExtraction is the closed schema the assistant must return for a
// scanned receipt. Category is coerced into the expense set before this
// struct is handed to callers.
type ReceiptExtraction struct {
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// StatementExtraction is the closed schema the assistant must return for a
// credit-card statement PDF. Rates are monthly/annual percentages.
type StatementExtraction struct {
	BankName            string          `json:"bank_name"`
	CardLastFour        string          `json:"card_last_four"`
	TotalOwed           decimal.Decimal `json:"total_owed"`
	MinimumPayment      decimal.Decimal `json:"minimum_payment"`
	PaymentDeadline     string          `json:"payment_deadline"`
	MonthlyInterestRate float64         `json:"monthly_interest_rate"`
	AnnualInterestRate  float64         `json:"annual_interest_rate"`
	PeriodInterest      decimal.Decimal `json:"period_interest"`
	OverdueBalance      decimal.Decimal `json:"overdue_balance"`
	CashAdvances        decimal.Decimal `json:"cash_advances"`
}

// StatementFileResult is the per-file outcome of a statement batch upload.
// Exactly one of Data, Error, NeedsPassword or IncorrectPassword describes
// the state; confirmed results become statement-sourced debts.
type StatementFileResult struct {
	FileName          string               `json:"file_name"`
	Data              *StatementExtraction `json:"data,omitempty"`
	Error             string               `json:"error,omitempty"`
	NeedsPassword     bool                 `json:"needs_password,omitempty"`
	IncorrectPassword bool                 `json:"incorrect_password,omitempty"`
}
