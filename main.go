package main

import (
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/finanzapp/backend/src/config"
	"github.com/username/finanzapp/backend/src/database"
	"github.com/username/finanzapp/backend/src/handlers"
	"github.com/username/finanzapp/backend/src/logger"
	"github.com/username/finanzapp/backend/src/processors"
	"github.com/username/finanzapp/backend/src/security"
	"github.com/username/finanzapp/backend/src/services"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000":    true,
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("FinanzApp backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	handlers.InitializeGoogleOAuthConfig()

	authService := security.NewAuthService(config.Cfg.JWTSecret)
	mfaService := services.NewMFAService()
	assistantService := services.NewAssistantService()
	statementService := services.NewStatementService(assistantService, config.Cfg.MaxStatementFiles)
	reportService := services.NewReportService(assistantService)

	aggregator := processors.NewAggregationProcessor()
	projector := processors.NewProjectionProcessor()

	userHandler := handlers.NewUserHandler(authService, mfaService, reportService)
	transactionHandler := handlers.NewTransactionHandler(reportService)
	budgetHandler := handlers.NewBudgetHandler(aggregator, reportService)
	goalHandler := handlers.NewGoalHandler(reportService)
	debtHandler := handlers.NewDebtHandler(projector, reportService)
	dashboardHandler := handlers.NewDashboardHandler(aggregator)
	projectionHandler := handlers.NewProjectionHandler(projector)
	reportHandler := handlers.NewReportHandler(reportService)
	uploadHandler := handlers.NewUploadHandler(assistantService, statementService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "FinanzApp Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Get("/auth/csrf", handlers.GetCSRFToken)
			r.Get("/auth/google/login", userHandler.HandleGoogleLogin)
			r.Get("/auth/google/callback", userHandler.HandleGoogleCallback)
		})

		// Authentication routes (CSRF protected)
		r.Group(func(r chi.Router) {
			r.Use(handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey))
			r.Post("/auth/login", userHandler.LoginUserHandler)
			r.Post("/auth/register", userHandler.RegisterUserHandler)
			r.Post("/auth/refresh", userHandler.RefreshTokenHandler)
			r.With(userHandler.AuthMiddleware).Post("/auth/logout", userHandler.LogoutUserHandler)
		})

		// Protected routes (require authentication and CSRF)
		r.Group(func(r chi.Router) {
			r.Use(handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey))
			r.Use(userHandler.AuthMiddleware)

			r.Get("/transactions", transactionHandler.HandleListTransactions)
			r.Post("/transactions", transactionHandler.HandleCreateTransaction)
			r.Put("/transactions/{id}", transactionHandler.HandleUpdateTransaction)
			r.Delete("/transactions/{id}", transactionHandler.HandleDeleteTransaction)

			r.Get("/budgets", budgetHandler.HandleListBudgets)
			r.Post("/budgets", budgetHandler.HandleUpsertBudget)
			r.Put("/budgets/{id}", budgetHandler.HandleUpdateBudget)
			r.Delete("/budgets/{id}", budgetHandler.HandleDeleteBudget)
			r.Get("/budgets/usage", budgetHandler.HandleGetBudgetUsage)

			r.Get("/goals", goalHandler.HandleListGoals)
			r.Post("/goals", goalHandler.HandleCreateGoal)
			r.Put("/goals/{id}", goalHandler.HandleUpdateGoal)
			r.Post("/goals/{id}/contribute", goalHandler.HandleContributeToGoal)
			r.Delete("/goals/{id}", goalHandler.HandleDeleteGoal)

			r.Get("/debts", debtHandler.HandleListDebts)
			r.Post("/debts", debtHandler.HandleCreateDebt)
			r.Get("/debts/{id}", debtHandler.HandleGetDebt)
			r.Put("/debts/{id}", debtHandler.HandleUpdateDebt)
			r.Delete("/debts/{id}", debtHandler.HandleDeleteDebt)
			r.Post("/debts/{id}/payments", debtHandler.HandleRecordPayment)
			r.Get("/debts/{id}/projection", debtHandler.HandleGetDebtProjection)

			r.Get("/dashboard/summary", dashboardHandler.HandleGetSummary)
			r.Get("/dashboard/monthly-series", dashboardHandler.HandleGetMonthlySeries)
			r.Post("/projections/growth", projectionHandler.HandleProjectGrowth)
			r.Post("/reports/monthly", reportHandler.HandleGenerateMonthlyReport)

			r.Post("/uploads/receipt", uploadHandler.HandleScanReceipt)
			r.Post("/uploads/statements", uploadHandler.HandleExtractStatements)
			r.Post("/uploads/gmail-import", uploadHandler.HandleGmailImport)

			r.Get("/user/profile", userHandler.HandleGetProfile)
			r.Post("/user/change-password", userHandler.ChangePasswordHandler)
			r.Post("/user/delete-account", userHandler.DeleteAccountHandler)
			r.Get("/user/mfa/setup", userHandler.HandleSetupMFA)
			r.Post("/user/mfa/activate", userHandler.HandleActivateMFA)

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(userHandler.AdminMiddleware)
				r.Get("/admin/stats", userHandler.HandleGetAdminStats)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
