package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/username/finanzapp/backend/src/config"
	"github.com/username/finanzapp/backend/src/database"
	"github.com/username/finanzapp/backend/src/logger"
	"github.com/username/finanzapp/backend/src/model"
	"github.com/username/finanzapp/backend/src/security"
	"github.com/username/finanzapp/backend/src/services"
	"golang.org/x/oauth2"
)

type contextKey string

const userIDContextKey contextKey = "userID"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
var passwordRegex = regexp.MustCompile(`^.{6,}$`)

var googleOauthConfig *oauth2.Config

type UserHandler struct {
	authService   *security.AuthService
	mfaService    *services.MFAService
	reportService services.ReportService
}

func NewUserHandler(authService *security.AuthService, mfaService *services.MFAService, reportService services.ReportService) *UserHandler {
	return &UserHandler{
		authService:   authService,
		mfaService:    mfaService,
		reportService: reportService,
	}
}

func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	return userID, ok
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// isAdmin reports whether an email belongs to a configured administrator.
func isAdmin(email string) bool {
	for _, adminEmail := range config.Cfg.AdminEmails {
		if strings.EqualFold(email, adminEmail) {
			return true
		}
	}
	return false
}

func (h *UserHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		sendJSONError(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":            user.ID,
		"username":      user.Username,
		"email":         user.Email,
		"auth_provider": user.AuthProvider,
		"is_admin":      isAdmin(user.Email),
		"mfa_enabled":   user.MfaEnabled,
	})
}

func (h *UserHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		sendJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if user.AuthProvider != "local" {
		sendJSONError(w, "Password change is not available for OAuth accounts", http.StatusBadRequest)
		return
	}
	if err := user.CheckPassword(req.CurrentPassword); err != nil {
		logger.L.Warn("Password change rejected: current password mismatch", "userID", userID)
		sendJSONError(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}
	if !passwordRegex.MatchString(strings.TrimSpace(req.NewPassword)) {
		sendJSONError(w, "New password must be at least 6 characters long", http.StatusBadRequest)
		return
	}

	hashed, err := h.authService.HashPassword(strings.TrimSpace(req.NewPassword))
	if err != nil {
		logger.L.Error("Failed to hash new password", "userID", userID, "error", err)
		sendJSONError(w, "Failed to change password", http.StatusInternalServerError)
		return
	}
	if err := user.UpdatePassword(database.DB, hashed); err != nil {
		logger.L.Error("Failed to update password in DB", "userID", userID, "error", err)
		sendJSONError(w, "Failed to change password", http.StatusInternalServerError)
		return
	}

	// Force re-login everywhere else.
	if err := model.DeleteSessionsByUserID(database.DB, userID); err != nil {
		logger.L.Warn("Failed to invalidate sessions after password change", "userID", userID, "error", err)
	}

	logger.L.Info("Password changed successfully", "userID", userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Password changed successfully. Please log in again."})
}

func (h *UserHandler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		sendJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if user.AuthProvider == "local" {
		if err := user.CheckPassword(req.Password); err != nil {
			logger.L.Warn("Account deletion rejected: password mismatch", "userID", userID)
			sendJSONError(w, "Password is incorrect", http.StatusUnauthorized)
			return
		}
	}

	if err := model.DeleteUser(database.DB, userID); err != nil {
		logger.L.Error("Failed to delete user account", "userID", userID, "error", err)
		sendJSONError(w, "Failed to delete account", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidateUserCache(userID)

	logger.L.Info("User account deleted", "userID", userID)
	w.WriteHeader(http.StatusNoContent)
}

// --- MFA ---

func (h *UserHandler) HandleSetupMFA(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		sendJSONError(w, "User not found", http.StatusNotFound)
		return
	}

	secret, qrCode, err := h.mfaService.GenerateMFASecret(user.Username)
	if err != nil {
		sendJSONError(w, "Failed to generate MFA", http.StatusInternalServerError)
		return
	}

	// Store the secret but keep MFA disabled until a code is confirmed.
	if err := user.UpdateMfaSecret(database.DB, secret, false); err != nil {
		sendJSONError(w, "Failed to save MFA secret", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"secret":  secret,
		"qr_code": qrCode,
	})
}

func (h *UserHandler) HandleActivateMFA(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		sendJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if user.MfaSecret == "" {
		sendJSONError(w, "MFA setup has not been started", http.StatusBadRequest)
		return
	}

	if !h.mfaService.ValidateToken(user.MfaSecret, req.Code) {
		sendJSONError(w, "Invalid MFA code", http.StatusUnauthorized)
		return
	}

	if err := user.UpdateMfaSecret(database.DB, user.MfaSecret, true); err != nil {
		sendJSONError(w, "Failed to enable MFA", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "MFA enabled successfully"})
}

// --- ADMIN FUNCTIONS ---

func (h *UserHandler) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		if !ok {
			sendJSONError(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		user, err := model.GetUserByID(database.DB, userID)
		if err != nil {
			sendJSONError(w, "User not found", http.StatusNotFound)
			return
		}

		if !isAdmin(user.Email) {
			logger.L.Warn("Admin access denied for user", "userID", user.ID)
			sendJSONError(w, "Forbidden: Administrator access required", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type AdminStats struct {
	TotalUsers         int `json:"totalUsers"`
	NewUsersToday      int `json:"newUsersToday"`
	NewUsersThisWeek   int `json:"newUsersThisWeek"`
	NewUsersThisMonth  int `json:"newUsersThisMonth"`
	DailyActiveUsers   int `json:"dailyActiveUsers"`
	MonthlyActiveUsers int `json:"monthlyActiveUsers"`
	TotalTransactions  int `json:"totalTransactions"`
	TotalBudgets       int `json:"totalBudgets"`
	TotalSavingsGoals  int `json:"totalSavingsGoals"`
	TotalDebts         int `json:"totalDebts"`
	TotalDebtPayments  int `json:"totalDebtPayments"`

	AuthProviderStats []ChartData      `json:"authProviderStats"`
	UsersPerDay       []TimeSeriesData `json:"usersPerDay"`
	ActiveUsersPerDay []TimeSeriesData `json:"activeUsersPerDay"`
}

type ChartData struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type TimeSeriesData struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func (h *UserHandler) HandleGetAdminStats(w http.ResponseWriter, r *http.Request) {
	var stats AdminStats

	database.DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&stats.TotalUsers)
	database.DB.QueryRow("SELECT COUNT(*) FROM users WHERE created_at > date('now', 'start of day')").Scan(&stats.NewUsersToday)
	database.DB.QueryRow("SELECT COUNT(*) FROM users WHERE created_at > date('now', '-7 days')").Scan(&stats.NewUsersThisWeek)
	database.DB.QueryRow("SELECT COUNT(*) FROM users WHERE created_at > date('now', 'start of month')").Scan(&stats.NewUsersThisMonth)
	database.DB.QueryRow("SELECT COUNT(DISTINCT user_id) FROM login_history WHERE created_at > date('now', '-1 day')").Scan(&stats.DailyActiveUsers)
	database.DB.QueryRow("SELECT COUNT(DISTINCT user_id) FROM login_history WHERE created_at > date('now', '-30 days')").Scan(&stats.MonthlyActiveUsers)
	database.DB.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&stats.TotalTransactions)
	database.DB.QueryRow("SELECT COUNT(*) FROM budgets").Scan(&stats.TotalBudgets)
	database.DB.QueryRow("SELECT COUNT(*) FROM savings_goals").Scan(&stats.TotalSavingsGoals)
	database.DB.QueryRow("SELECT COUNT(*) FROM debts").Scan(&stats.TotalDebts)
	database.DB.QueryRow("SELECT COUNT(*) FROM debt_payments").Scan(&stats.TotalDebtPayments)

	authRows, _ := database.DB.Query("SELECT auth_provider, COUNT(*) FROM users GROUP BY auth_provider")
	if authRows != nil {
		defer authRows.Close()
		for authRows.Next() {
			var name string
			var val float64
			authRows.Scan(&name, &val)
			stats.AuthProviderStats = append(stats.AuthProviderStats, ChartData{Name: name, Value: val})
		}
	}

	rowsUsers, _ := database.DB.Query(`
		SELECT strftime('%Y-%m-%d', created_at) as day, COUNT(*)
		FROM users
		WHERE created_at >= date('now', '-30 days')
		GROUP BY day ORDER BY day ASC
	`)
	if rowsUsers != nil {
		defer rowsUsers.Close()
		for rowsUsers.Next() {
			var d TimeSeriesData
			rowsUsers.Scan(&d.Date, &d.Count)
			stats.UsersPerDay = append(stats.UsersPerDay, d)
		}
	}

	rowsActive, _ := database.DB.Query(`
		SELECT strftime('%Y-%m-%d', created_at) as day, COUNT(DISTINCT user_id)
		FROM login_history
		WHERE created_at >= date('now', '-30 days')
		GROUP BY day ORDER BY day ASC
	`)
	if rowsActive != nil {
		defer rowsActive.Close()
		for rowsActive.Next() {
			var d TimeSeriesData
			rowsActive.Scan(&d.Date, &d.Count)
			stats.ActiveUsersPerDay = append(stats.ActiveUsersPerDay, d)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
