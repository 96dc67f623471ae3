package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single income or expense entry. Date uses the
// "YYYY-MM-DD" form so that lexicographic ordering matches chronological
// ordering; the first seven characters are the period key.
type Transaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"-"`
	Date        string          `json:"date"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PeriodKey returns the "YYYY-MM" prefix of the transaction date.
func (t Transaction) PeriodKey() string {
	if len(t.Date) < 7 {
		return ""
	}
	return t.Date[:7]
}

// Budget is a per-category monthly spending limit. At most one row exists per
// (user, category); writes go through upsert.
type Budget struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"-"`
	Category     string          `json:"category"`
	MonthlyLimit decimal.Decimal `json:"monthly_limit"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SavingsGoal tracks progress toward a savings target. CurrentAmount may
// exceed TargetAmount; "achieved" is derived, never stored.
type SavingsGoal struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"-"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      *string         `json:"deadline,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Achieved reports whether the goal has been reached.
func (g SavingsGoal) Achieved() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Debt is a single debt instrument. InterestRate is a monthly percentage.
// CurrentBalance is never stored: it is derived on read as
// max(0, original_amount - sum of payments), which makes payment recording a
// single atomic insert and removes any chance of the cached balance drifting
// from the payment history.
type Debt struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"-"`
	Name           string          `json:"name"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	MinimumPayment decimal.Decimal `json:"minimum_payment"`
	InterestRate   float64         `json:"interest_rate"`

	// Optional fields populated for statement-derived debts.
	BankName           *string          `json:"bank_name,omitempty"`
	CardLastFour       *string          `json:"card_last_four,omitempty"`
	AnnualInterestRate *float64         `json:"annual_interest_rate,omitempty"`
	PaymentDeadline    *string          `json:"payment_deadline,omitempty"`
	PeriodInterest     *decimal.Decimal `json:"period_interest,omitempty"`
	OverdueBalance     *decimal.Decimal `json:"overdue_balance,omitempty"`
	CashAdvances       *decimal.Decimal `json:"cash_advances,omitempty"`
	Source             string           `json:"source"`

	Payments  []DebtPayment `json:"payments"`
	CreatedAt time.Time     `json:"created_at"`
}

// DebtPayment is an immutable, append-only payment fact.
type DebtPayment struct {
	ID     int64           `json:"id"`
	DebtID int64           `json:"debt_id"`
	Amount decimal.Decimal `json:"amount"`
	PaidAt time.Time       `json:"paid_at"`
}

// BalanceFromPayments derives the outstanding balance from the original
// amount and a payment total, floored at zero.
func BalanceFromPayments(originalAmount, paymentsTotal decimal.Decimal) decimal.Decimal {
	balance := originalAmount.Sub(paymentsTotal)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}
