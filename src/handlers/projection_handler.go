package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/username/finanzapp/backend/src/processors"
)

// maxGrowthHorizonMonths caps the projection length so a careless request
// cannot produce a multi-megabyte series.
const maxGrowthHorizonMonths = 1200

type ProjectionHandler struct {
	projector *processors.ProjectionProcessor
}

func NewProjectionHandler(projector *processors.ProjectionProcessor) *ProjectionHandler {
	return &ProjectionHandler{projector: projector}
}

type growthRequest struct {
	Capital     decimal.Decimal `json:"capital"`
	MonthlyRate float64         `json:"monthly_rate"`
	Period      int             `json:"period"`
	PeriodUnit  string          `json:"period_unit"`
	Mode        string          `json:"mode"`
}

type growthResponse struct {
	Series        []processors.GrowthPoint `json:"series"`
	FinalValue    decimal.Decimal          `json:"final_value"`
	TotalInterest decimal.Decimal          `json:"total_interest"`
}

// HandleProjectGrowth computes an investment growth series. The engine is
// pure and validates nothing, so all clamping happens here at the boundary:
// negative capital/rate/period become zero and years are normalized to months.
func (h *ProjectionHandler) HandleProjectGrowth(w http.ResponseWriter, r *http.Request) {
	if _, ok := GetUserIDFromContext(r.Context()); !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req growthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	capital := req.Capital
	if capital.IsNegative() {
		capital = decimal.Zero
	}
	rate := req.MonthlyRate
	if rate < 0 {
		rate = 0
	}

	months := req.Period
	switch req.PeriodUnit {
	case "years":
		months *= 12
	case "", "months":
	default:
		sendJSONError(w, "period_unit must be 'months' or 'years'", http.StatusBadRequest)
		return
	}
	if months < 0 {
		months = 0
	}
	if months > maxGrowthHorizonMonths {
		sendJSONError(w, "projection period is too long", http.StatusBadRequest)
		return
	}

	mode := processors.GrowthMode(req.Mode)
	switch mode {
	case processors.GrowthSimple, processors.GrowthCompound:
	case "":
		mode = processors.GrowthCompound
	default:
		sendJSONError(w, "mode must be 'simple' or 'compound'", http.StatusBadRequest)
		return
	}

	series := h.projector.ProjectGrowth(capital, rate, months, mode)
	last := series[len(series)-1]

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(growthResponse{
		Series:        series,
		FinalValue:    last.Value,
		TotalInterest: last.CumulativeInterest,
	})
}
