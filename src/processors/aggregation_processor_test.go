package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finanzapp/backend/src/models"
)

func tx(date string, txType models.TransactionType, category string, amount int64) models.Transaction {
	return models.Transaction{
		Date:     date,
		Type:     txType,
		Category: category,
		Amount:   decimal.NewFromInt(amount),
	}
}

func sampleTransactions() []models.Transaction {
	return []models.Transaction{
		tx("2025-03-01", models.TypeIncome, "Salary", 3_000_000),
		tx("2025-03-05", models.TypeExpense, "Food", 450_000),
		tx("2025-03-15", models.TypeExpense, "Transport", 120_000),
		tx("2025-03-28", models.TypeExpense, "Food", 200_000),
		tx("2025-02-02", models.TypeIncome, "Salary", 3_000_000),
		tx("2025-02-10", models.TypeExpense, "Housing", 900_000),
		tx("2024-12-20", models.TypeExpense, "Entertainment", 80_000),
	}
}

func TestMonthlyTotals(t *testing.T) {
	p := NewAggregationProcessor()

	totals := p.MonthlyTotals(sampleTransactions(), 3, 2025)
	assert.Equal(t, "3000000", totals.Income.String())
	assert.Equal(t, "770000", totals.Expense.String())
	assert.Equal(t, "2230000", totals.Balance.String())
}

func TestMonthlyTotals_EmptyInput(t *testing.T) {
	p := NewAggregationProcessor()

	totals := p.MonthlyTotals(nil, 3, 2025)
	assert.True(t, totals.Income.IsZero())
	assert.True(t, totals.Expense.IsZero())
	assert.True(t, totals.Balance.IsZero())
}

func TestMonthlyTotals_Idempotent(t *testing.T) {
	p := NewAggregationProcessor()
	txs := sampleTransactions()

	first := p.MonthlyTotals(txs, 3, 2025)
	second := p.MonthlyTotals(txs, 3, 2025)
	assert.True(t, first.Income.Equal(second.Income))
	assert.True(t, first.Expense.Equal(second.Expense))
	assert.True(t, first.Balance.Equal(second.Balance))
}

func TestPeriodSeries(t *testing.T) {
	p := NewAggregationProcessor()

	series := p.PeriodSeries(sampleTransactions())
	require.Len(t, series, 3)

	// Chronological ascending by "YYYY-MM" key.
	assert.Equal(t, "2024-12", series[0].Period)
	assert.Equal(t, "2025-02", series[1].Period)
	assert.Equal(t, "2025-03", series[2].Period)

	assert.Equal(t, "80000", series[0].Expense.String())
	assert.True(t, series[0].Income.IsZero())
	assert.Equal(t, "3000000", series[2].Income.String())
	assert.Equal(t, "770000", series[2].Expense.String())
}

func TestPeriodSeries_Empty(t *testing.T) {
	p := NewAggregationProcessor()
	assert.Empty(t, p.PeriodSeries(nil))
}

func TestCategoryTotals(t *testing.T) {
	p := NewAggregationProcessor()

	totals := p.CategoryTotals(sampleTransactions(), 3, 2025, models.TypeExpense)
	require.Len(t, totals, 2)
	assert.Equal(t, "650000", totals["Food"].String())
	assert.Equal(t, "120000", totals["Transport"].String())

	// Income transactions never leak into expense totals.
	_, ok := totals["Salary"]
	assert.False(t, ok)

	// A category with no spend in the month is absent, treated as zero
	// downstream.
	_, ok = totals["Housing"]
	assert.False(t, ok)
}

func TestTrendPercent(t *testing.T) {
	p := NewAggregationProcessor()

	pct, ok := p.TrendPercent(decimal.NewFromInt(150), decimal.NewFromInt(100))
	require.True(t, ok)
	assert.InDelta(t, 50, pct, 1e-9)

	pct, ok = p.TrendPercent(decimal.NewFromInt(50), decimal.NewFromInt(100))
	require.True(t, ok)
	assert.InDelta(t, -50, pct, 1e-9)

	// Previous is negative: the divisor is |previous|.
	pct, ok = p.TrendPercent(decimal.NewFromInt(50), decimal.NewFromInt(-100))
	require.True(t, ok)
	assert.InDelta(t, 150, pct, 1e-9)
}

func TestTrendPercent_UndefinedWhenPreviousZero(t *testing.T) {
	p := NewAggregationProcessor()

	_, ok := p.TrendPercent(decimal.Zero, decimal.Zero)
	assert.False(t, ok)

	_, ok = p.TrendPercent(decimal.NewFromInt(500), decimal.Zero)
	assert.False(t, ok)
}
