package model

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/finanzapp/backend/src/models"
)

// DebtSourceManual and DebtSourceStatement are the only accepted values for
// the debts.source column.
const (
	DebtSourceManual    = "manual"
	DebtSourceStatement = "statement_upload"
)

const debtColumns = `id, user_id, name, original_amount, minimum_payment, interest_rate,
	bank_name, card_last_four, annual_interest_rate, payment_deadline,
	period_interest, overdue_balance, cash_advances, source, created_at`

func scanDebt(row interface{ Scan(...any) error }) (*models.Debt, error) {
	d := &models.Debt{}
	var bankName, cardLastFour, paymentDeadline sql.NullString
	var annualRate sql.NullFloat64
	var periodInterest, overdueBalance, cashAdvances decimal.NullDecimal
	err := row.Scan(
		&d.ID, &d.UserID, &d.Name, &d.OriginalAmount, &d.MinimumPayment, &d.InterestRate,
		&bankName, &cardLastFour, &annualRate, &paymentDeadline,
		&periodInterest, &overdueBalance, &cashAdvances, &d.Source, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if bankName.Valid {
		d.BankName = &bankName.String
	}
	if cardLastFour.Valid {
		d.CardLastFour = &cardLastFour.String
	}
	if annualRate.Valid {
		d.AnnualInterestRate = &annualRate.Float64
	}
	if paymentDeadline.Valid {
		d.PaymentDeadline = &paymentDeadline.String
	}
	if periodInterest.Valid {
		d.PeriodInterest = &periodInterest.Decimal
	}
	if overdueBalance.Valid {
		d.OverdueBalance = &overdueBalance.Decimal
	}
	if cashAdvances.Valid {
		d.CashAdvances = &cashAdvances.Decimal
	}
	return d, nil
}

// CreateDebt inserts a new debt and sets its ID.
func CreateDebt(db *sql.DB, d *models.Debt) error {
	result, err := db.Exec(
		`INSERT INTO debts (user_id, name, original_amount, minimum_payment, interest_rate,
			bank_name, card_last_four, annual_interest_rate, payment_deadline,
			period_interest, overdue_balance, cash_advances, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.UserID, d.Name, d.OriginalAmount.String(), d.MinimumPayment.String(), d.InterestRate,
		nullableString(d.BankName), nullableString(d.CardLastFour), nullableFloat(d.AnnualInterestRate),
		nullableString(d.PaymentDeadline), nullableDecimal(d.PeriodInterest),
		nullableDecimal(d.OverdueBalance), nullableDecimal(d.CashAdvances), d.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}
	d.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID for debt: %w", err)
	}
	d.CurrentBalance = d.OriginalAmount
	d.Payments = []models.DebtPayment{}
	return nil
}

// GetDebtByID fetches one owned debt together with its payment history and
// derived balance.
func GetDebtByID(db *sql.DB, userID, id int64) (*models.Debt, error) {
	row := db.QueryRow(
		"SELECT "+debtColumns+" FROM debts WHERE id = ? AND user_id = ?",
		id, userID,
	)
	d, err := scanDebt(row)
	if err != nil {
		return nil, err
	}
	if err := attachPayments(db, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ListDebts returns all debts for a user with payment histories and derived
// balances, newest first.
func ListDebts(db *sql.DB, userID int64) ([]models.Debt, error) {
	rows, err := db.Query(
		"SELECT "+debtColumns+" FROM debts WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query debts: %w", err)
	}
	defer rows.Close()

	debts := []models.Debt{}
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt row: %w", err)
		}
		debts = append(debts, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range debts {
		if err := attachPayments(db, &debts[i]); err != nil {
			return nil, err
		}
	}
	return debts, nil
}

// attachPayments loads the payment history and derives the outstanding
// balance. The balance is never stored, so it cannot drift from the payments.
func attachPayments(db *sql.DB, d *models.Debt) error {
	rows, err := db.Query(
		"SELECT id, debt_id, amount, paid_at FROM debt_payments WHERE debt_id = ? ORDER BY paid_at ASC, id ASC",
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to query debt payments: %w", err)
	}
	defer rows.Close()

	d.Payments = []models.DebtPayment{}
	total := decimal.Zero
	for rows.Next() {
		p := models.DebtPayment{}
		if err := rows.Scan(&p.ID, &p.DebtID, &p.Amount, &p.PaidAt); err != nil {
			return fmt.Errorf("failed to scan debt payment row: %w", err)
		}
		d.Payments = append(d.Payments, p)
		total = total.Add(p.Amount)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	d.CurrentBalance = models.BalanceFromPayments(d.OriginalAmount, total)
	return nil
}

// UpdateDebt rewrites the mutable manual fields of an owned debt. Statement
// metadata is immutable once captured; payments are append-only facts.
func UpdateDebt(db *sql.DB, d *models.Debt) error {
	result, err := db.Exec(
		"UPDATE debts SET name = ?, original_amount = ?, minimum_payment = ?, interest_rate = ? WHERE id = ? AND user_id = ?",
		d.Name, d.OriginalAmount.String(), d.MinimumPayment.String(), d.InterestRate, d.ID, d.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update debt: %w", err)
	}
	return requireOneRow(result)
}

// AddDebtPayment records a payment against an owned debt. Recording is a
// single insert; the outstanding balance is derived on every read, so there
// is no second write that could be lost halfway.
func AddDebtPayment(db *sql.DB, userID, debtID int64, amount decimal.Decimal) (*models.DebtPayment, error) {
	// Ownership check first so a payment can never land on another user's debt.
	var owner int64
	err := db.QueryRow("SELECT user_id FROM debts WHERE id = ? AND user_id = ?", debtID, userID).Scan(&owner)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result, err := db.Exec(
		"INSERT INTO debt_payments (debt_id, user_id, amount, paid_at) VALUES (?, ?, ?, ?)",
		debtID, userID, amount.String(), now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert debt payment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID for debt payment: %w", err)
	}
	return &models.DebtPayment{ID: id, DebtID: debtID, Amount: amount, PaidAt: now}, nil
}

// DeleteDebt removes an owned debt; payments go with it via ON DELETE CASCADE.
func DeleteDebt(db *sql.DB, userID, id int64) error {
	result, err := db.Exec("DELETE FROM debts WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	return requireOneRow(result)
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
