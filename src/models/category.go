package models

// TransactionType distinguishes money coming in from money going out.
// The sign of an amount is always implied by the type, never stored.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// FallbackCategory is assigned whenever an extracted or submitted category
// is not a member of the closed set for its transaction type.
const FallbackCategory = "Other"

// ExpenseCategories is the closed set of categories for expense transactions
// and budgets.
var ExpenseCategories = []string{
	"Food", "Transport", "Entertainment", "Health",
	"Education", "Housing", "Clothing", "Other",
}

// IncomeCategories is the closed set of categories for income transactions.
var IncomeCategories = []string{
	"Salary", "Freelance", "Investments", "Other",
}

var (
	expenseCategorySet = make(map[string]bool, len(ExpenseCategories))
	incomeCategorySet  = make(map[string]bool, len(IncomeCategories))
)

func init() {
	for _, c := range ExpenseCategories {
		expenseCategorySet[c] = true
	}
	for _, c := range IncomeCategories {
		incomeCategorySet[c] = true
	}
}

// IsValidCategory reports whether category belongs to the closed set for the
// given transaction type.
func IsValidCategory(txType TransactionType, category string) bool {
	switch txType {
	case TypeIncome:
		return incomeCategorySet[category]
	case TypeExpense:
		return expenseCategorySet[category]
	}
	return false
}

// NormalizeCategory returns the category unchanged when it is a member of the
// set for the given type, and FallbackCategory otherwise. Used at the AI
// extraction boundary where the collaborator may return anything.
func NormalizeCategory(txType TransactionType, category string) string {
	if IsValidCategory(txType, category) {
		return category
	}
	return FallbackCategory
}
