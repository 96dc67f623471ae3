package model

import (
	"database/sql"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Password     string    `json:"-"`
	AuthProvider string    `json:"auth_provider,omitempty"`
	LoginCount   int       `json:"login_count"`
	LastLoginAt  NullTime  `json:"last_login_at"`
	LastLoginIP  string    `json:"last_login_ip"`
	MfaSecret    string    `json:"-"`
	MfaEnabled   bool      `json:"mfa_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NullTime is an alias for sql.NullTime for better JSON handling.
type NullTime sql.NullTime

func (nt NullTime) MarshalJSON() ([]byte, error) {
	if !nt.Valid {
		return []byte("null"), nil
	}
	return nt.Time.MarshalJSON()
}

func (u *User) HashPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

func (u *User) CreateUser(db *sql.DB) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.AuthProvider == "" {
		u.AuthProvider = "local"
	}

	query := `
	INSERT INTO users (username, email, password, auth_provider, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	res, err := stmt.Exec(u.Username, u.Email, u.Password, u.AuthProvider, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

const userColumns = `id, username, email, password, auth_provider, login_count, last_login_at, last_login_ip, mfa_secret, mfa_enabled, created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var lastLoginAt sql.NullTime
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Password, &u.AuthProvider,
		&u.LoginCount, &lastLoginAt, &u.LastLoginIP,
		&u.MfaSecret, &u.MfaEnabled, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.LastLoginAt = NullTime(lastLoginAt)
	return &u, nil
}

func GetUserByID(db *sql.DB, id int64) (*User, error) {
	row := db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func GetUserByEmail(db *sql.DB, email string) (*User, error) {
	row := db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func GetUserByUsername(db *sql.DB, username string) (*User, error) {
	row := db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (u *User) UpdatePassword(db *sql.DB, hashedPassword string) error {
	_, err := db.Exec(`UPDATE users SET password = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, hashedPassword, u.ID)
	if err == nil {
		u.Password = hashedPassword
	}
	return err
}

func (u *User) UpdateMfaSecret(db *sql.DB, secret string, enabled bool) error {
	_, err := db.Exec(`UPDATE users SET mfa_secret = ?, mfa_enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, secret, enabled, u.ID)
	if err == nil {
		u.MfaSecret = secret
		u.MfaEnabled = enabled
	}
	return err
}

// DeleteUser removes the user row; transactions, budgets, goals, debts,
// payments and sessions go with it via ON DELETE CASCADE.
func DeleteUser(db *sql.DB, id int64) error {
	_, err := db.Exec(`DELETE FROM users WHERE id = ?`, id)
	return err
}
