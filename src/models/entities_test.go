package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBalanceFromPayments(t *testing.T) {
	balance := BalanceFromPayments(decimal.NewFromInt(1000), decimal.NewFromInt(300))
	assert.Equal(t, "700", balance.String())

	balance = BalanceFromPayments(decimal.NewFromInt(1000), decimal.Zero)
	assert.Equal(t, "1000", balance.String())

	// Overpayment floors at zero rather than going negative.
	balance = BalanceFromPayments(decimal.NewFromInt(1000), decimal.NewFromInt(1200))
	assert.True(t, balance.IsZero())

	balance = BalanceFromPayments(decimal.NewFromInt(1000), decimal.NewFromInt(1000))
	assert.True(t, balance.IsZero())

	// Cent-level precision survives the subtraction.
	balance = BalanceFromPayments(decimal.RequireFromString("100.10"), decimal.RequireFromString("0.05"))
	assert.Equal(t, "100.05", balance.String())
}

func TestTransactionPeriodKey(t *testing.T) {
	assert.Equal(t, "2026-03", Transaction{Date: "2026-03-15"}.PeriodKey())
	assert.Equal(t, "2026-12", Transaction{Date: "2026-12-01"}.PeriodKey())
	assert.Equal(t, "", Transaction{Date: "2026"}.PeriodKey())
	assert.Equal(t, "", Transaction{}.PeriodKey())
}

func TestSavingsGoalAchieved(t *testing.T) {
	goal := SavingsGoal{TargetAmount: decimal.NewFromInt(500), CurrentAmount: decimal.NewFromInt(499)}
	assert.False(t, goal.Achieved())

	goal.CurrentAmount = decimal.NewFromInt(500)
	assert.True(t, goal.Achieved())

	goal.CurrentAmount = decimal.NewFromInt(600)
	assert.True(t, goal.Achieved())
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "Food", NormalizeCategory(TypeExpense, "Food"))
	assert.Equal(t, "Salary", NormalizeCategory(TypeIncome, "Salary"))

	// Anything outside the closed set collapses to the fallback.
	assert.Equal(t, FallbackCategory, NormalizeCategory(TypeExpense, "Groceries"))
	assert.Equal(t, FallbackCategory, NormalizeCategory(TypeExpense, "food"))
	assert.Equal(t, FallbackCategory, NormalizeCategory(TypeIncome, "Food"))
	assert.Equal(t, FallbackCategory, NormalizeCategory(TypeExpense, ""))
}

func TestIsValidCategory_UnknownType(t *testing.T) {
	assert.False(t, IsValidCategory(TransactionType("transfer"), "Other"))
}
