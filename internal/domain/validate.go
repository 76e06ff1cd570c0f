package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinSimulationDays = 1
	MaxSimulationDays = 365
)

// ValidateSimulation checks a revenue simulation request before it is sent.
func ValidateSimulation(req SimulationRequest) error {
	if len(req.ProductIDs) == 0 {
		return NewValidationError("product_ids", "select at least one product")
	}
	for _, id := range req.ProductIDs {
		if id <= 0 {
			return NewValidationError("product_ids", fmt.Sprintf("invalid product id %d", id))
		}
	}
	if req.Days < MinSimulationDays || req.Days > MaxSimulationDays {
		return NewValidationError("days", fmt.Sprintf("must be between %d and %d", MinSimulationDays, MaxSimulationDays))
	}
	if req.Seed < 0 {
		return NewValidationError("seed", "must not be negative")
	}
	return nil
}

// ValidateSpend checks a monthly spend request before it is sent.
func ValidateSpend(req SpendRequest) error {
	if req.Year < 2000 || req.Year > 2100 {
		return NewValidationError("year", "must be between 2000 and 2100")
	}
	if req.Month < 1 || req.Month > 12 {
		return NewValidationError("month", "must be between 1 and 12")
	}
	for i, o := range req.Orders {
		if o.Qty < 0 {
			return NewValidationError(fmt.Sprintf("orders[%d].qty", i), "must not be negative")
		}
		if o.Cost < 0 {
			return NewValidationError(fmt.Sprintf("orders[%d].cost", i), "must not be negative")
		}
	}
	return nil
}

// spendDateLayouts are the ISO 8601 forms the calculation API parses.
// Fractional seconds after the seconds field are accepted by time.Parse
// without a layout of their own.
var spendDateLayouts = []string{
	"2006-01-02",
	"20060102",
	"2006-01-02T15",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05Z07:00",
}

// ParseSpendDate parses a spend order date. A space may separate the date
// from the time.
func ParseSpendDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) > 10 && raw[10] == ' ' {
		raw = raw[:10] + "T" + raw[11:]
	}
	for _, layout := range spendDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DropUndatedOrders removes orders whose date does not parse, the same rows
// the calculation API skips, and returns how many were dropped.
func (r SpendRequest) DropUndatedOrders() (SpendRequest, int) {
	kept := make([]SpendOrder, 0, len(r.Orders))
	for _, o := range r.Orders {
		if _, ok := ParseSpendDate(o.Date); ok {
			kept = append(kept, o)
		}
	}
	dropped := len(r.Orders) - len(kept)
	r.Orders = kept
	return r, dropped
}
