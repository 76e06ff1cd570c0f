// internal/domain/models.go
package domain

import (
	"strconv"
	"strings"
	"time"
)

// UOM is a unit of measure, e.g. kg or piece
type UOM struct {
	ID   int64  `json:"uom_id"`
	Name string `json:"uom_name"`
}

// Product mirrors a row of the remote product list
type Product struct {
	ID           int64   `json:"product_id"`
	Name         string  `json:"name"`
	UOMID        int64   `json:"uom_id"`
	UOMName      string  `json:"uom_name"`
	PricePerUnit float64 `json:"price_per_unit"`
	Quantity     float64 `json:"quantity"`
}

// ProductInput is the payload for addProduct/updateProduct. ID is nil when
// creating a product.
type ProductInput struct {
	ID           *int64  `json:"product_id"`
	Name         string  `json:"name"`
	UOMID        int64   `json:"uom_id"`
	PricePerUnit float64 `json:"price_per_unit"`
	Quantity     int64   `json:"quantity"`
}

// OrderSummary is one entry of the recent/all order lists
type OrderSummary struct {
	ID           int64   `json:"order_id"`
	CustomerName string  `json:"customer_name"`
	TotalPrice   float64 `json:"total_price"`
	Datetime     string  `json:"datetime"`
}

// OrderDetailLine is one line of an order, as returned by getOrderDetails and
// inside getOrder's items.
type OrderDetailLine struct {
	OrderID     int64    `json:"order_id"`
	ProductID   int64    `json:"product_id,omitempty"`
	ProductName string   `json:"product_name"`
	Quantity    float64  `json:"quantity"`
	UOMName     string   `json:"uom_name"`
	ItemTotal   float64  `json:"item_total"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
}

// Order is the full order returned by getOrder
type Order struct {
	ID           int64             `json:"order_id"`
	CustomerName string            `json:"customer_name"`
	TotalPrice   float64           `json:"total_price"`
	Datetime     string            `json:"datetime"`
	Items        []OrderDetailLine `json:"items"`
}

// OrderLinePayload is one submitted line item
type OrderLinePayload struct {
	ProductID  int64   `json:"product_id"`
	Quantity   float64 `json:"quantity"`
	TotalPrice float64 `json:"total_price"`
}

// OrderPayload is the body of addOrder. OrderID is nil for a new order.
type OrderPayload struct {
	OrderID      *int64             `json:"order_id"`
	CustomerName string             `json:"customer_name"`
	TotalPrice   float64            `json:"total_price"`
	Datetime     string             `json:"datetime"`
	OrderDetails []OrderLinePayload `json:"order_details"`
}

// OrderTimestampLayout is the datetime format sent with a saved order.
const OrderTimestampLayout = "2006-01-02 15:04:05"

// DisplayDateLayout is how order dates are rendered and searched.
const DisplayDateLayout = "2006-01-02 15:04"

var orderDateLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC3339,
	OrderTimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseOrderDate parses the datetime formats the remote API is known to emit.
func ParseOrderDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormattedDate returns the display form of the order date, or the raw value
// when it cannot be parsed.
func (o OrderSummary) FormattedDate() string {
	if t, ok := ParseOrderDate(o.Datetime); ok {
		return t.Format(DisplayDateLayout)
	}
	return o.Datetime
}

// DerivedUnitPrice returns the explicit unit price, or item total divided by
// quantity when the server omitted it.
func (l OrderDetailLine) DerivedUnitPrice() float64 {
	if l.UnitPrice != nil && *l.UnitPrice != 0 {
		return *l.UnitPrice
	}
	if l.Quantity > 0 {
		return l.ItemTotal / l.Quantity
	}
	return 0
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatQuantity renders a quantity without trailing zeros.
func FormatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
