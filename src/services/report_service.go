package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/finanzapp/backend/src/database"
	"github.com/username/finanzapp/backend/src/logger"
	"github.com/username/finanzapp/backend/src/model"
	"github.com/username/finanzapp/backend/src/processors"
)

type reportServiceImpl struct {
	assistant  AssistantService
	aggregator *processors.AggregationProcessor
	cache      *cache.Cache
}

func NewReportService(assistant AssistantService) ReportService {
	return &reportServiceImpl{
		assistant:  assistant,
		aggregator: processors.NewAggregationProcessor(),
		cache:      cache.New(30*time.Minute, 10*time.Minute),
	}
}

func reportCacheKey(userID int64, month, year int) string {
	return fmt.Sprintf("monthly_report_%d_%04d-%02d", userID, year, month)
}

// GetMonthlyReport assembles the user's full financial picture for one month
// and asks the assistant for a narrative. Results are cached per
// (user, month, year); any data mutation for the user drops the cache.
func (s *reportServiceImpl) GetMonthlyReport(ctx context.Context, userID int64, month, year int) (*MonthlyReportResult, error) {
	key := reportCacheKey(userID, month, year)
	if cached, found := s.cache.Get(key); found {
		logger.L.Debug("Monthly report served from cache", "userID", userID, "key", key)
		result := cached.(MonthlyReportResult)
		result.Cached = true
		return &result, nil
	}

	payload, err := s.assemblePayload(userID, month, year)
	if err != nil {
		return nil, err
	}

	report, err := s.assistant.GenerateMonthlyReport(ctx, *payload)
	if err != nil {
		return nil, err
	}

	result := MonthlyReportResult{
		Month:  month,
		Year:   year,
		Report: report,
		Totals: payload.Totals,
	}
	s.cache.Set(key, result, cache.DefaultExpiration)
	logger.L.Info("Monthly report generated", "userID", userID, "month", month, "year", year)
	return &result, nil
}

func (s *reportServiceImpl) assemblePayload(userID int64, month, year int) (*ReportPayload, error) {
	transactions, err := model.ListTransactions(database.DB, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for report: %w", err)
	}
	budgets, err := model.ListBudgets(database.DB, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load budgets for report: %w", err)
	}
	goals, err := model.ListSavingsGoals(database.DB, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load savings goals for report: %w", err)
	}
	debts, err := model.ListDebts(database.DB, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load debts for report: %w", err)
	}

	periodKey := fmt.Sprintf("%04d-%02d", year, month)
	monthTransactions := transactions[:0:0]
	for _, tx := range transactions {
		if tx.PeriodKey() == periodKey {
			monthTransactions = append(monthTransactions, tx)
		}
	}

	return &ReportPayload{
		Month:        month,
		Year:         year,
		Totals:       s.aggregator.MonthlyTotals(transactions, month, year),
		Transactions: monthTransactions,
		Budgets:      budgets,
		SavingsGoals: goals,
		Debts:        debts,
		Series:       s.aggregator.PeriodSeries(transactions),
	}, nil
}

// InvalidateUserCache drops every cached report for the user. Called after
// any write to the user's financial data so a regenerated report never shows
// stale numbers.
func (s *reportServiceImpl) InvalidateUserCache(userID int64) {
	prefix := fmt.Sprintf("monthly_report_%d_", userID)
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
}
