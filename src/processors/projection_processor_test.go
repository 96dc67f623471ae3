package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestMonthsToPayoff_NotApplicable(t *testing.T) {
	p := NewProjectionProcessor()

	tests := []struct {
		name    string
		balance decimal.Decimal
		payment decimal.Decimal
		rate    float64
	}{
		{"zero payment", d(1000), d(0), 2},
		{"negative payment", d(1000), d(-50), 2},
		{"zero balance", d(0), d(100), 2},
		{"negative balance", d(-500), d(100), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			horizon := p.MonthsToPayoff(tt.balance, tt.payment, tt.rate)
			assert.False(t, horizon.Applicable)
		})
	}
}

func TestMonthsToPayoff_ZeroRate(t *testing.T) {
	p := NewProjectionProcessor()

	// With no interest the horizon is a plain ceiling division.
	horizon := p.MonthsToPayoff(d(1000), d(300), 0)
	require.True(t, horizon.Applicable)
	assert.False(t, horizon.Never)
	assert.Equal(t, 4, horizon.Months)

	horizon = p.MonthsToPayoff(d(1000), d(250), 0)
	require.True(t, horizon.Applicable)
	assert.Equal(t, 4, horizon.Months)

	// Negative rates are treated the same as zero.
	horizon = p.MonthsToPayoff(d(1200), d(400), -1)
	require.True(t, horizon.Applicable)
	assert.Equal(t, 3, horizon.Months)
}

func TestMonthsToPayoff_PaymentBelowAccrual(t *testing.T) {
	p := NewProjectionProcessor()

	// 1% on 1,000,000 accrues 10,000/month; a 5,000 payment never shrinks
	// the balance.
	horizon := p.MonthsToPayoff(d(1_000_000), d(5_000), 1)
	require.True(t, horizon.Applicable)
	assert.True(t, horizon.Never)

	// Payment exactly equal to the accrual also never converges.
	horizon = p.MonthsToPayoff(d(1_000_000), d(10_000), 1)
	require.True(t, horizon.Applicable)
	assert.True(t, horizon.Never)

	// One unit above the accrual converges, however slowly.
	horizon = p.MonthsToPayoff(d(1_000_000), d(10_001), 1)
	require.True(t, horizon.Applicable)
	assert.False(t, horizon.Never)
	assert.Greater(t, horizon.Months, 0)
}

func TestMonthsToPayoff_ClosedForm(t *testing.T) {
	p := NewProjectionProcessor()

	// ln(100000/80000)/ln(1.02) = 11.27, rounded up to 12. A step-by-step
	// simulation of the balance confirms payoff happens during month 12.
	horizon := p.MonthsToPayoff(d(1_000_000), d(100_000), 2)
	require.True(t, horizon.Applicable)
	require.False(t, horizon.Never)
	assert.Equal(t, 12, horizon.Months)

	// 1,200 at 1% with a 200 payment: simulated balance goes negative in
	// month 7.
	horizon = p.MonthsToPayoff(d(1200), d(200), 1)
	require.True(t, horizon.Applicable)
	assert.Equal(t, 7, horizon.Months)
}

func TestTotalInterest(t *testing.T) {
	p := NewProjectionProcessor()

	horizon := p.MonthsToPayoff(d(1_000_000), d(100_000), 2)
	require.Equal(t, 12, horizon.Months)

	interest := p.TotalInterest(d(1_000_000), d(100_000), 2, horizon)
	// payment*months - balance = 1,200,000 - 1,000,000
	assert.Equal(t, "200000", interest.String())
	assert.False(t, interest.IsNegative())
}

func TestTotalInterest_SentinelCases(t *testing.T) {
	p := NewProjectionProcessor()

	tests := []struct {
		name    string
		horizon PayoffHorizon
		rate    float64
	}{
		{"not applicable", PayoffHorizon{Applicable: false}, 2},
		{"never", PayoffHorizon{Applicable: true, Never: true}, 2},
		{"zero rate", PayoffHorizon{Applicable: true, Months: 4}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interest := p.TotalInterest(d(1000), d(300), tt.rate, tt.horizon)
			assert.True(t, interest.IsZero())
		})
	}
}

func TestProjectGrowth_Compound(t *testing.T) {
	p := NewProjectionProcessor()

	series := p.ProjectGrowth(d(1_000_000), 1, 12, GrowthCompound)
	require.Len(t, series, 13)

	first := series[0]
	assert.Equal(t, 0, first.Month)
	assert.Equal(t, "1000000", first.Value.String())
	assert.True(t, first.CumulativeInterest.IsZero())

	// 1,000,000 * 1.01^12, rounded to whole units.
	last := series[12]
	assert.Equal(t, 12, last.Month)
	assert.Equal(t, "1126825", last.Value.String())
	assert.Equal(t, "126825", last.CumulativeInterest.String())
	assert.Equal(t, "1000000", last.Capital.String())
}

func TestProjectGrowth_Simple(t *testing.T) {
	p := NewProjectionProcessor()

	series := p.ProjectGrowth(d(1_000_000), 1, 12, GrowthSimple)
	require.Len(t, series, 13)

	// Interest always accrues on the original capital: 12 * 10,000 exactly.
	last := series[12]
	assert.Equal(t, "1120000", last.Value.String())
	assert.Equal(t, "120000", last.CumulativeInterest.String())
}

func TestProjectGrowth_FlatWhenRateNotPositive(t *testing.T) {
	p := NewProjectionProcessor()

	for _, rate := range []float64{0, -0.5} {
		series := p.ProjectGrowth(d(500_000), rate, 6, GrowthCompound)
		require.Len(t, series, 7)
		for _, point := range series {
			assert.Equal(t, "500000", point.Value.String())
			assert.True(t, point.CumulativeInterest.IsZero())
		}
	}
}

func TestProjectGrowth_NegativeHorizonClamped(t *testing.T) {
	p := NewProjectionProcessor()

	series := p.ProjectGrowth(d(100), 1, -3, GrowthCompound)
	require.Len(t, series, 1)
	assert.Equal(t, 0, series[0].Month)
}
