package model

import (
	"database/sql"
	"fmt"

	"github.com/username/finanzapp/backend/src/models"
)

const transactionColumns = "id, user_id, date, type, category, description, amount, created_at"

func scanTransaction(row interface{ Scan(...any) error }) (*models.Transaction, error) {
	t := &models.Transaction{}
	err := row.Scan(&t.ID, &t.UserID, &t.Date, &t.Type, &t.Category, &t.Description, &t.Amount, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTransaction inserts a new transaction and sets its ID.
func CreateTransaction(db *sql.DB, t *models.Transaction) error {
	result, err := db.Exec(
		"INSERT INTO transactions (user_id, date, type, category, description, amount) VALUES (?, ?, ?, ?, ?, ?)",
		t.UserID, t.Date, t.Type, t.Category, t.Description, t.Amount.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	t.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID for transaction: %w", err)
	}
	return nil
}

// GetTransactionByID fetches a single transaction scoped to its owner.
func GetTransactionByID(db *sql.DB, userID, id int64) (*models.Transaction, error) {
	row := db.QueryRow(
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND user_id = ?",
		id, userID,
	)
	return scanTransaction(row)
}

// ListTransactions returns all transactions for a user, newest first.
func ListTransactions(db *sql.DB, userID int64) ([]models.Transaction, error) {
	rows, err := db.Query(
		"SELECT "+transactionColumns+" FROM transactions WHERE user_id = ? ORDER BY date DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListTransactionsForPeriod returns a user's transactions for one "YYYY-MM"
// period, oldest first.
func ListTransactionsForPeriod(db *sql.DB, userID int64, periodKey string) ([]models.Transaction, error) {
	rows, err := db.Query(
		"SELECT "+transactionColumns+" FROM transactions WHERE user_id = ? AND date LIKE ? ORDER BY date ASC, id ASC",
		userID, periodKey+"-%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for period %s: %w", periodKey, err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// UpdateTransaction rewrites every mutable field of an owned transaction.
func UpdateTransaction(db *sql.DB, t *models.Transaction) error {
	result, err := db.Exec(
		"UPDATE transactions SET date = ?, type = ?, category = ?, description = ?, amount = ? WHERE id = ? AND user_id = ?",
		t.Date, t.Type, t.Category, t.Description, t.Amount.String(), t.ID, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return requireOneRow(result)
}

// DeleteTransaction removes an owned transaction.
func DeleteTransaction(db *sql.DB, userID, id int64) error {
	result, err := db.Exec("DELETE FROM transactions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireOneRow(result)
}

// requireOneRow converts a zero-row write into sql.ErrNoRows so handlers can
// distinguish "not found" from real failures.
func requireOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
