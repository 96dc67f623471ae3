package processors

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/finanzapp/backend/src/models"
)

// MonthlyTotals is the income/expense/balance summary for one calendar month.
type MonthlyTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// PeriodTotals is one entry of the per-month series. Period is a "YYYY-MM"
// key; lexicographic order on it is chronological order.
type PeriodTotals struct {
	Period  string          `json:"period"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// AggregationProcessor reduces raw transaction lists into the period-scoped
// numeric summaries used by the dashboard, budget tracking and report
// assembly. It holds no state; every method is a pure function of its inputs.
type AggregationProcessor struct{}

func NewAggregationProcessor() *AggregationProcessor {
	return &AggregationProcessor{}
}

func periodKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// MonthlyTotals sums the amounts of transactions dated in the given calendar
// month, split by type. An empty input yields all zeros.
func (p *AggregationProcessor) MonthlyTotals(transactions []models.Transaction, month, year int) MonthlyTotals {
	key := periodKey(year, month)
	totals := MonthlyTotals{Income: decimal.Zero, Expense: decimal.Zero, Balance: decimal.Zero}

	for _, tx := range transactions {
		if tx.PeriodKey() != key {
			continue
		}
		switch tx.Type {
		case models.TypeIncome:
			totals.Income = totals.Income.Add(tx.Amount)
		case models.TypeExpense:
			totals.Expense = totals.Expense.Add(tx.Amount)
		}
	}

	totals.Balance = totals.Income.Sub(totals.Expense)
	return totals
}

// PeriodSeries groups transactions by (year, month) and returns one entry per
// month that has at least one transaction, ordered chronologically ascending.
func (p *AggregationProcessor) PeriodSeries(transactions []models.Transaction) []PeriodTotals {
	byPeriod := make(map[string]*PeriodTotals)

	for _, tx := range transactions {
		key := tx.PeriodKey()
		if key == "" {
			continue
		}
		entry, ok := byPeriod[key]
		if !ok {
			entry = &PeriodTotals{Period: key, Income: decimal.Zero, Expense: decimal.Zero}
			byPeriod[key] = entry
		}
		switch tx.Type {
		case models.TypeIncome:
			entry.Income = entry.Income.Add(tx.Amount)
		case models.TypeExpense:
			entry.Expense = entry.Expense.Add(tx.Amount)
		}
	}

	series := make([]PeriodTotals, 0, len(byPeriod))
	for _, entry := range byPeriod {
		series = append(series, *entry)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Period < series[j].Period
	})
	return series
}

// CategoryTotals sums amounts per category for transactions of the given type
// in the given month. Categories with no transactions are simply absent from
// the map; budget display treats absence as zero spend.
func (p *AggregationProcessor) CategoryTotals(transactions []models.Transaction, month, year int, txType models.TransactionType) map[string]decimal.Decimal {
	key := periodKey(year, month)
	totals := make(map[string]decimal.Decimal)

	for _, tx := range transactions {
		if tx.Type != txType || tx.PeriodKey() != key {
			continue
		}
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
	}
	return totals
}

// TrendPercent computes (current - previous) / |previous| * 100. The second
// return value is false when previous is zero: there is no comparison
// available and callers must omit the trend indicator rather than show 0 or
// an infinity.
func (p *AggregationProcessor) TrendPercent(current, previous decimal.Decimal) (float64, bool) {
	if previous.IsZero() {
		return 0, false
	}
	pct := current.Sub(previous).Div(previous.Abs()).Mul(decimal.NewFromInt(100))
	return pct.InexactFloat64(), true
}
