package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/username/finanzapp/backend/src/models"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxNameLength          = 100
	MaxDescriptionLength   = 512
)

// --- String Validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// --- Domain Validators ---

// ValidateTransactionType checks membership of the closed type set.
func ValidateTransactionType(t string) (models.TransactionType, error) {
	switch models.TransactionType(t) {
	case models.TypeIncome:
		return models.TypeIncome, nil
	case models.TypeExpense:
		return models.TypeExpense, nil
	}
	return "", fmt.Errorf("%w: type must be 'income' or 'expense', got '%s'", ErrValidationFailed, t)
}

// ValidateCategory checks that the category belongs to the closed set for the
// given transaction type. Unlike the AI extraction boundary, user-submitted
// categories are rejected, not coerced.
func ValidateCategory(txType models.TransactionType, category string) error {
	if !models.IsValidCategory(txType, category) {
		return fmt.Errorf("%w: '%s' is not a valid %s category", ErrValidationFailed, category, txType)
	}
	return nil
}

// ValidatePositiveAmount checks that a monetary amount is strictly positive.
// Direction is encoded by the transaction type or record kind, never by sign.
func ValidatePositiveAmount(amount decimal.Decimal, fieldName string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than zero", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateNonNegativeAmount checks that a monetary amount is zero or more.
func ValidateNonNegativeAmount(amount decimal.Decimal, fieldName string) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s cannot be negative", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateDateString checks if a string is a valid calendar day in
// "YYYY-MM-DD" form. The format is load-bearing: lexicographic order on
// stored dates must match chronological order.
func ValidateDateString(s, fieldName string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s ('%s') is not a valid date (expected YYYY-MM-DD): %v", ErrValidationFailed, fieldName, s, err)
	}
	if t.Format("2006-01-02") != trimmed {
		return time.Time{}, fmt.Errorf("%w: %s ('%s') is an invalid date (e.g., day/month mismatch)", ErrValidationFailed, fieldName, s)
	}
	return t, nil
}

// ValidateMonthYear checks a (month, year) pair used for period-scoped
// queries.
func ValidateMonthYear(month, year int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12, got %d", ErrValidationFailed, month)
	}
	if year < 1970 || year > 9999 {
		return fmt.Errorf("%w: year must be between 1970 and 9999, got %d", ErrValidationFailed, year)
	}
	return nil
}
