package model

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/username/finanzapp/backend/src/models"
)

const goalColumns = "id, user_id, name, target_amount, current_amount, deadline, created_at"

func scanGoal(row interface{ Scan(...any) error }) (*models.SavingsGoal, error) {
	g := &models.SavingsGoal{}
	var deadline sql.NullString
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &deadline, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		g.Deadline = &deadline.String
	}
	return g, nil
}

// CreateSavingsGoal inserts a new goal and sets its ID.
func CreateSavingsGoal(db *sql.DB, g *models.SavingsGoal) error {
	var deadline any
	if g.Deadline != nil {
		deadline = *g.Deadline
	}
	result, err := db.Exec(
		"INSERT INTO savings_goals (user_id, name, target_amount, current_amount, deadline) VALUES (?, ?, ?, ?, ?)",
		g.UserID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), deadline,
	)
	if err != nil {
		return fmt.Errorf("failed to insert savings goal: %w", err)
	}
	g.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID for savings goal: %w", err)
	}
	return nil
}

// GetSavingsGoalByID fetches a single goal scoped to its owner.
func GetSavingsGoalByID(db *sql.DB, userID, id int64) (*models.SavingsGoal, error) {
	row := db.QueryRow(
		"SELECT "+goalColumns+" FROM savings_goals WHERE id = ? AND user_id = ?",
		id, userID,
	)
	return scanGoal(row)
}

// ListSavingsGoals returns all goals for a user, newest first.
func ListSavingsGoals(db *sql.DB, userID int64) ([]models.SavingsGoal, error) {
	rows, err := db.Query(
		"SELECT "+goalColumns+" FROM savings_goals WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query savings goals: %w", err)
	}
	defer rows.Close()

	goals := []models.SavingsGoal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan savings goal row: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// UpdateSavingsGoal rewrites the mutable fields of an owned goal.
func UpdateSavingsGoal(db *sql.DB, g *models.SavingsGoal) error {
	var deadline any
	if g.Deadline != nil {
		deadline = *g.Deadline
	}
	result, err := db.Exec(
		"UPDATE savings_goals SET name = ?, target_amount = ?, current_amount = ?, deadline = ? WHERE id = ? AND user_id = ?",
		g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), deadline, g.ID, g.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update savings goal: %w", err)
	}
	return requireOneRow(result)
}

// AddToSavingsGoal adds a contribution to an owned goal and returns the
// updated row. Amounts are stored as decimal text, so the addition is done in
// Go inside a transaction rather than in SQL where SQLite would coerce the
// operands to floats.
func AddToSavingsGoal(db *sql.DB, userID, id int64, amount decimal.Decimal) (*models.SavingsGoal, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for goal contribution: %w", err)
	}
	defer tx.Rollback()

	var current decimal.Decimal
	err = tx.QueryRow(
		"SELECT current_amount FROM savings_goals WHERE id = ? AND user_id = ?",
		id, userID,
	).Scan(&current)
	if err != nil {
		return nil, err
	}

	updated := current.Add(amount)
	if _, err := tx.Exec(
		"UPDATE savings_goals SET current_amount = ? WHERE id = ? AND user_id = ?",
		updated.String(), id, userID,
	); err != nil {
		return nil, fmt.Errorf("failed to add to savings goal: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit goal contribution: %w", err)
	}
	return GetSavingsGoalByID(db, userID, id)
}

// DeleteSavingsGoal removes an owned goal.
func DeleteSavingsGoal(db *sql.DB, userID, id int64) error {
	result, err := db.Exec("DELETE FROM savings_goals WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete savings goal: %w", err)
	}
	return requireOneRow(result)
}
