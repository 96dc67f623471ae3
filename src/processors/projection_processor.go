package processors

import (
	"math"

	"github.com/shopspring/decimal"
)

// GrowthMode selects the interest model for ProjectGrowth.
type GrowthMode string

const (
	GrowthSimple   GrowthMode = "simple"
	GrowthCompound GrowthMode = "compound"
)

// PayoffHorizon is the result of an amortization projection.
//
// Applicable is false when the question itself is undefined (non-positive
// balance or payment); Never is true when the payment does not cover even the
// first period's interest accrual, so the balance can never shrink. Months is
// only meaningful when Applicable is true and Never is false.
type PayoffHorizon struct {
	Applicable bool `json:"applicable"`
	Never      bool `json:"never"`
	Months     int  `json:"months"`
}

// GrowthPoint is one emitted step of a growth projection. Monetary values are
// rounded to whole currency units; this is display-grade precision, not
// audit-grade accounting.
type GrowthPoint struct {
	Month              int             `json:"month"`
	Value              decimal.Decimal `json:"value"`
	CumulativeInterest decimal.Decimal `json:"cumulative_interest"`
	Capital            decimal.Decimal `json:"capital"`
}

// ProjectionProcessor computes debt amortization horizons and investment
// growth series. All methods are pure and reentrant: no shared state, safe to
// call concurrently. Inputs are assumed to be validated at the handler
// boundary; undefined cases yield sentinel results, never errors.
type ProjectionProcessor struct{}

func NewProjectionProcessor() *ProjectionProcessor {
	return &ProjectionProcessor{}
}

// MonthsToPayoff computes the payoff horizon for a fixed monthly payment and
// fixed monthly interest rate, with interest accrued on the remaining balance
// before each payment is applied (standard amortizing loan).
//
// With no interest the horizon is a plain ceil(balance / payment). Otherwise
// the closed form ceil(log(payment / (payment - balance*r)) / log(1+r)) is
// used. The Never guard is load-bearing: when payment <= balance*r the log
// argument is <= 1 (or negative) and the formula would produce garbage.
func (p *ProjectionProcessor) MonthsToPayoff(balance, payment decimal.Decimal, monthlyRatePercent float64) PayoffHorizon {
	if !payment.IsPositive() || !balance.IsPositive() {
		return PayoffHorizon{Applicable: false}
	}

	bal := balance.InexactFloat64()
	pay := payment.InexactFloat64()

	if monthlyRatePercent <= 0 {
		months := int(math.Ceil(bal / pay))
		return PayoffHorizon{Applicable: true, Months: months}
	}

	r := monthlyRatePercent / 100
	accrual := bal * r
	if pay <= accrual {
		return PayoffHorizon{Applicable: true, Never: true}
	}

	months := int(math.Ceil(math.Log(pay/(pay-accrual)) / math.Log(1+r)))
	return PayoffHorizon{Applicable: true, Months: months}
}

// TotalInterest estimates the interest paid over a payoff horizon as
// payment*months - balance. The estimate assumes the final payment is
// full-sized, so it can overstate slightly versus a period-by-period ledger;
// acceptable for a projection display, not for legal amortization tables.
// Not-applicable, never-converging and zero-rate horizons yield zero.
func (p *ProjectionProcessor) TotalInterest(balance, payment decimal.Decimal, monthlyRatePercent float64, horizon PayoffHorizon) decimal.Decimal {
	if !horizon.Applicable || horizon.Never || monthlyRatePercent <= 0 {
		return decimal.Zero
	}
	return payment.Mul(decimal.NewFromInt(int64(horizon.Months))).Sub(balance)
}

// ProjectGrowth produces the month-by-month projected value of an investment
// under simple or compound monthly interest. The series has horizonMonths+1
// points, point zero being the initial state. Compound mode accrues interest
// on the running value; simple mode always accrues on the original capital.
// A zero or negative rate yields a flat series at capital.
func (p *ProjectionProcessor) ProjectGrowth(capital decimal.Decimal, monthlyRatePercent float64, horizonMonths int, mode GrowthMode) []GrowthPoint {
	if horizonMonths < 0 {
		horizonMonths = 0
	}

	rate := decimal.NewFromFloat(monthlyRatePercent).Div(decimal.NewFromInt(100))
	grow := monthlyRatePercent > 0

	series := make([]GrowthPoint, 0, horizonMonths+1)
	running := capital
	cumulativeInterest := decimal.Zero

	for month := 0; month <= horizonMonths; month++ {
		series = append(series, GrowthPoint{
			Month:              month,
			Value:              running.Round(0),
			CumulativeInterest: cumulativeInterest.Round(0),
			Capital:            capital,
		})
		if !grow {
			continue
		}
		if mode == GrowthCompound {
			interest := running.Mul(rate)
			cumulativeInterest = cumulativeInterest.Add(interest)
			running = running.Add(interest)
		} else {
			interest := capital.Mul(rate)
			cumulativeInterest = cumulativeInterest.Add(interest)
			running = capital.Add(cumulativeInterest)
		}
	}
	return series
}
