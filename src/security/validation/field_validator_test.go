package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finanzapp/backend/src/models"
)

func TestValidateTransactionType(t *testing.T) {
	txType, err := ValidateTransactionType("income")
	require.NoError(t, err)
	assert.Equal(t, models.TypeIncome, txType)

	txType, err = ValidateTransactionType("expense")
	require.NoError(t, err)
	assert.Equal(t, models.TypeExpense, txType)

	for _, invalid := range []string{"", "Income", "transfer", "EXPENSE"} {
		_, err := ValidateTransactionType(invalid)
		assert.ErrorIs(t, err, ErrValidationFailed, "type %q", invalid)
	}
}

func TestValidateCategory(t *testing.T) {
	assert.NoError(t, ValidateCategory(models.TypeExpense, "Food"))
	assert.NoError(t, ValidateCategory(models.TypeIncome, "Salary"))
	assert.NoError(t, ValidateCategory(models.TypeExpense, "Other"))
	assert.NoError(t, ValidateCategory(models.TypeIncome, "Other"))

	// Membership is per type: income categories are not expense categories.
	assert.ErrorIs(t, ValidateCategory(models.TypeExpense, "Salary"), ErrValidationFailed)
	assert.ErrorIs(t, ValidateCategory(models.TypeIncome, "Food"), ErrValidationFailed)
	assert.ErrorIs(t, ValidateCategory(models.TypeExpense, "food"), ErrValidationFailed)
	assert.ErrorIs(t, ValidateCategory(models.TypeExpense, "Groceries"), ErrValidationFailed)
}

func TestValidateAmounts(t *testing.T) {
	assert.NoError(t, ValidatePositiveAmount(decimal.NewFromFloat(0.01), "amount"))
	assert.ErrorIs(t, ValidatePositiveAmount(decimal.Zero, "amount"), ErrValidationFailed)
	assert.ErrorIs(t, ValidatePositiveAmount(decimal.NewFromInt(-5), "amount"), ErrValidationFailed)

	assert.NoError(t, ValidateNonNegativeAmount(decimal.Zero, "amount"))
	assert.NoError(t, ValidateNonNegativeAmount(decimal.NewFromInt(5), "amount"))
	assert.ErrorIs(t, ValidateNonNegativeAmount(decimal.NewFromInt(-1), "amount"), ErrValidationFailed)
}

func TestValidateDateString(t *testing.T) {
	parsed, err := ValidateDateString("2026-03-15", "date")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", parsed.Format("2006-01-02"))

	// Surrounding whitespace is tolerated.
	_, err = ValidateDateString("  2026-03-15 ", "date")
	assert.NoError(t, err)

	for _, invalid := range []string{"", "  ", "15/03/2026", "2026-3-15", "2026-13-01", "2026-02-30", "not a date"} {
		_, err := ValidateDateString(invalid, "date")
		assert.ErrorIs(t, err, ErrValidationFailed, "date %q", invalid)
	}
}

func TestValidateMonthYear(t *testing.T) {
	assert.NoError(t, ValidateMonthYear(1, 2026))
	assert.NoError(t, ValidateMonthYear(12, 1970))

	assert.ErrorIs(t, ValidateMonthYear(0, 2026), ErrValidationFailed)
	assert.ErrorIs(t, ValidateMonthYear(13, 2026), ErrValidationFailed)
	assert.ErrorIs(t, ValidateMonthYear(6, 1969), ErrValidationFailed)
	assert.ErrorIs(t, ValidateMonthYear(6, 10000), ErrValidationFailed)
}

func TestValidateStringMaxLength(t *testing.T) {
	assert.NoError(t, ValidateStringMaxLength("abc", 3, "name"))
	assert.ErrorIs(t, ValidateStringMaxLength("abcd", 3, "name"), ErrValidationFailed)

	// Length is counted in runes, not bytes.
	assert.NoError(t, ValidateStringMaxLength("ããã", 3, "name"))
}
