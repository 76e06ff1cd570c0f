package domain

import (
	"encoding/json"
	"fmt"
)

// SimulationRequest is the body of POST /api/calc/revenue
type SimulationRequest struct {
	ProductIDs []int64 `json:"product_ids"`
	Days       int     `json:"days"`
	Seed       int     `json:"seed"`
}

type SimulationSummary struct {
	TotalRevenue        float64 `json:"total_revenue"`
	TotalCost           float64 `json:"total_cost"`
	TotalProfit         float64 `json:"total_profit"`
	ProfitMarginPercent float64 `json:"profit_margin_percent"`
	TotalUnitsSold      int64   `json:"total_units_sold"`
}

type SimulationDetail struct {
	Product             string  `json:"product"`
	InitialStock        float64 `json:"initial_stock"`
	SoldUnits           int64   `json:"sold_units"`
	RemainingStock      float64 `json:"remaining_stock"`
	Revenue             float64 `json:"revenue"`
	Cost                float64 `json:"cost"`
	Profit              float64 `json:"profit"`
	ProfitMarginPercent float64 `json:"profit_margin_percent"`
}

type SimulationResult struct {
	Summary SimulationSummary  `json:"summary"`
	Details []SimulationDetail `json:"details"`
}

// Profit classes used to colour simulation values.
const (
	ProfitPositive = "positive"
	ProfitNegative = "negative"
	ProfitZero     = "zero"
)

// ProfitClass classifies a profit value by sign.
func ProfitClass(v float64) string {
	switch {
	case v > 0:
		return ProfitPositive
	case v < 0:
		return ProfitNegative
	default:
		return ProfitZero
	}
}

// SpendOrder is one purchase fed to the monthly spend calculation
type SpendOrder struct {
	Date     string  `json:"date"`
	Qty      float64 `json:"qty"`
	Cost     float64 `json:"cost"`
	Category string  `json:"category"`
}

// SpendRequest is the body of POST /api/calc/spend
type SpendRequest struct {
	Year   int          `json:"year"`
	Month  int          `json:"month"`
	Orders []SpendOrder `json:"orders"`
}

// CostDriver is the category with the highest spend. The API encodes it as a
// two element array: [category, amount].
type CostDriver struct {
	Category string
	Amount   float64
}

func (d *CostDriver) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("decode cost driver: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decode cost driver: expected 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &d.Category); err != nil {
		return fmt.Errorf("decode cost driver category: %w", err)
	}
	if err := json.Unmarshal(pair[1], &d.Amount); err != nil {
		return fmt.Errorf("decode cost driver amount: %w", err)
	}
	return nil
}

func (d CostDriver) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{d.Category, d.Amount})
}

type SpendResult struct {
	TotalSpend        float64            `json:"total_spend"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	HighestCostDriver *CostDriver        `json:"highest_cost_driver"`
}

// Weather is the trimmed view of the current-conditions response used by the
// dashboard widget.
type Weather struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Units       string  `json:"units"`
}
