package controller

import (
	"math"
	"strconv"
	"strings"

	"github.com/andresuchdata/storeadmin/internal/domain"
)

// ProductForm is the raw product modal input. ID is blank in add mode and
// carries the product being edited otherwise.
type ProductForm struct {
	ID       string
	Name     string
	UOMID    string
	Price    string
	Quantity string
}

// ValidateProductForm converts the form into an input payload. Quantity must
// be a whole number when requireQuantity is set; otherwise a blank quantity
// means zero.
func ValidateProductForm(form ProductForm, requireQuantity bool) (domain.ProductInput, error) {
	var input domain.ProductInput

	if rawID := strings.TrimSpace(form.ID); rawID != "" {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || id <= 0 {
			return input, domain.NewValidationError("product_id", "invalid product id")
		}
		input.ID = &id
	}

	input.Name = strings.TrimSpace(form.Name)
	if input.Name == "" {
		return input, domain.NewValidationError("name", "Fill all fields: name is required")
	}

	uomID, err := strconv.ParseInt(strings.TrimSpace(form.UOMID), 10, 64)
	if err != nil || uomID <= 0 {
		return input, domain.NewValidationError("uom_id", "Fill all fields: select a unit")
	}
	input.UOMID = uomID

	price, err := strconv.ParseFloat(strings.TrimSpace(form.Price), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return input, domain.NewValidationError("price_per_unit", "Fill all fields: price must be a positive number")
	}
	input.PricePerUnit = price

	rawQty := strings.TrimSpace(form.Quantity)
	if rawQty == "" && !requireQuantity {
		return input, nil
	}
	qty, err := strconv.ParseInt(rawQty, 10, 64)
	if err != nil || qty < 0 {
		return input, domain.NewValidationError("quantity", "Fill all fields: quantity must be a whole number")
	}
	input.Quantity = qty

	return input, nil
}

// FormFromProduct pre-fills the product modal.
func FormFromProduct(p domain.Product) ProductForm {
	return ProductForm{
		ID:       strconv.FormatInt(p.ID, 10),
		Name:     p.Name,
		UOMID:    strconv.FormatInt(p.UOMID, 10),
		Price:    domain.FormatQuantity(p.PricePerUnit),
		Quantity: domain.FormatQuantity(p.Quantity),
	}
}

// ParseOrderID parses the id query parameter of the order editor. Blank
// means create mode.
func ParseOrderID(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, domain.NewValidationError("id", "invalid order id")
	}
	return &id, nil
}
