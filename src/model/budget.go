package model

import (
	"database/sql"
	"fmt"

	"github.com/username/finanzapp/backend/src/models"
)

const budgetColumns = "id, user_id, category, monthly_limit, created_at"

func scanBudget(row interface{ Scan(...any) error }) (*models.Budget, error) {
	b := &models.Budget{}
	err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.MonthlyLimit, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpsertBudget inserts a budget or, when one already exists for the
// (user, category) pair, replaces its limit. At most one budget per category
// is a schema invariant, so the write is a single atomic statement.
func UpsertBudget(db *sql.DB, b *models.Budget) error {
	err := db.QueryRow(
		`INSERT INTO budgets (user_id, category, monthly_limit) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, category) DO UPDATE SET monthly_limit = excluded.monthly_limit
		 RETURNING id`,
		b.UserID, b.Category, b.MonthlyLimit.String(),
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert budget: %w", err)
	}
	return nil
}

// GetBudgetByID fetches a single budget scoped to its owner.
func GetBudgetByID(db *sql.DB, userID, id int64) (*models.Budget, error) {
	row := db.QueryRow(
		"SELECT "+budgetColumns+" FROM budgets WHERE id = ? AND user_id = ?",
		id, userID,
	)
	return scanBudget(row)
}

// ListBudgets returns all budgets for a user ordered by category.
func ListBudgets(db *sql.DB, userID int64) ([]models.Budget, error) {
	rows, err := db.Query(
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? ORDER BY category ASC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	budgets := []models.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget row: %w", err)
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

// UpdateBudgetLimit changes the monthly limit of an owned budget.
func UpdateBudgetLimit(db *sql.DB, userID, id int64, limit string) error {
	result, err := db.Exec(
		"UPDATE budgets SET monthly_limit = ? WHERE id = ? AND user_id = ?",
		limit, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	return requireOneRow(result)
}

// DeleteBudget removes an owned budget.
func DeleteBudget(db *sql.DB, userID, id int64) error {
	result, err := db.Exec("DELETE FROM budgets WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return requireOneRow(result)
}
