package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderSummaryFormattedDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"flask http date", "Fri, 21 Nov 2025 10:30:00 GMT", "2025-11-21 10:30"},
		{"sql timestamp", "2025-11-21 10:30:59", "2025-11-21 10:30"},
		{"rfc3339", "2025-11-21T10:30:00Z", "2025-11-21 10:30"},
		{"unparseable kept", "yesterday", "yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderSummary{Datetime: tt.raw}.FormattedDate())
		})
	}
}

func TestDerivedUnitPrice(t *testing.T) {
	explicit := 2.5
	assert.Equal(t, 2.5, OrderDetailLine{UnitPrice: &explicit, ItemTotal: 100, Quantity: 2}.DerivedUnitPrice())
	assert.Equal(t, 4.0, OrderDetailLine{ItemTotal: 12, Quantity: 3}.DerivedUnitPrice())
	assert.Zero(t, OrderDetailLine{ItemTotal: 12}.DerivedUnitPrice())
}

func TestProfitClass(t *testing.T) {
	assert.Equal(t, ProfitPositive, ProfitClass(0.01))
	assert.Equal(t, ProfitNegative, ProfitClass(-3))
	assert.Equal(t, ProfitZero, ProfitClass(0))
}

func TestSpendResultDecodesCostDriverPair(t *testing.T) {
	var res SpendResult
	err := json.Unmarshal([]byte(`{"total_spend": 42.5, "category_breakdown": {"Fruit": 30, "Dairy": 12.5}, "highest_cost_driver": ["Fruit", 30]}`), &res)
	require.NoError(t, err)

	require.NotNil(t, res.HighestCostDriver)
	assert.Equal(t, "Fruit", res.HighestCostDriver.Category)
	assert.Equal(t, 30.0, res.HighestCostDriver.Amount)

	var empty SpendResult
	require.NoError(t, json.Unmarshal([]byte(`{"total_spend": 0, "category_breakdown": {}, "highest_cost_driver": null}`), &empty))
	assert.Nil(t, empty.HighestCostDriver)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("name", "is required")
	assert.EqualError(t, err, "name: is required")
	assert.True(t, IsValidation(err))
	assert.False(t, IsValidation(ErrNotFound))
}

func TestParseSpendDate(t *testing.T) {
	for _, raw := range []string{
		"2025-01-01",
		"20250101",
		"2025-01-01 10:00:00",
		"2025-01-01T10:00:00",
		"2025-01-01T10:00:00.123456",
		"2025-01-01T10:00",
		"2025-01-01T10:00:00+02:00",
		"2025-01-01T10:00:00Z",
	} {
		_, ok := ParseSpendDate(raw)
		assert.True(t, ok, raw)
	}
	for _, raw := range []string{"", "01/02/2025", "2025-13-01", "yesterday"} {
		_, ok := ParseSpendDate(raw)
		assert.False(t, ok, raw)
	}

	req, dropped := SpendRequest{Orders: []SpendOrder{{Date: "bad"}, {Date: "2025-02-03"}}}.DropUndatedOrders()
	assert.Equal(t, 1, dropped)
	assert.Len(t, req.Orders, 1)
}
