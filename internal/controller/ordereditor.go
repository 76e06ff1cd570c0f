package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Row is one line item of the order editor.
type Row struct {
	ID          int
	ProductID   int64
	QuantityRaw string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Valid reports whether the row is submitted with the order.
func (r Row) Valid() bool {
	return r.ProductID > 0 && r.Quantity.IsPositive()
}

// RowInput is one row as posted back by the editor form.
type RowInput struct {
	ID        int
	ProductID int64
	Quantity  string
}

type EditorSnapshot struct {
	EditingID    *int64
	CustomerName string
	Products     []domain.Product
	Rows         []Row
	GrandTotal   decimal.Decimal
	Loaded       bool
}

type OrderEditor struct {
	orders  OrderSource
	catalog ProductLister
	now     func() time.Time

	mu         sync.Mutex
	editingID  *int64
	customer   string
	products   []domain.Product
	prices     map[int64]decimal.Decimal
	rows       []*Row
	nextRowID  int
	grandTotal decimal.Decimal
	loaded     bool

	events subscribers
}

func NewOrderEditor(orders OrderSource, catalog ProductLister) *OrderEditor {
	return &OrderEditor{
		orders:  orders,
		catalog: catalog,
		now:     time.Now,
	}
}

// Load resets the editor. A blank orderID opens create mode with one empty
// row; otherwise the existing order is fetched after the product catalogue
// and one row is built per line item.
func (e *OrderEditor) Load(ctx context.Context, orderID string) error {
	id, err := ParseOrderID(orderID)
	if err != nil {
		return err
	}

	products, err := e.catalog.ListProducts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("order editor: failed to load products")
		e.events.emit(Event{Page: "order", Kind: EventFailed, Err: err})
		return fmt.Errorf("load products: %w", err)
	}

	var order *domain.Order
	if id != nil {
		order, err = e.orders.GetOrder(ctx, *id)
		if err != nil {
			log.Error().Err(err).Int64("order_id", *id).Msg("order editor: failed to load order")
			e.events.emit(Event{Page: "order", Kind: EventFailed, Err: err})
			return err
		}
	}

	e.mu.Lock()
	e.editingID = id
	e.customer = ""
	e.products = products
	e.prices = make(map[int64]decimal.Decimal, len(products))
	for _, p := range products {
		e.prices[p.ID] = decimal.NewFromFloat(p.PricePerUnit)
	}
	e.rows = nil
	e.grandTotal = decimal.Zero

	if order == nil || len(order.Items) == 0 {
		e.addRowLocked()
	} else {
		for _, item := range order.Items {
			row := e.addRowLocked()
			row.ProductID = item.ProductID
			row.Quantity = decimal.NewFromFloat(item.Quantity)
			row.QuantityRaw = row.Quantity.String()
			row.UnitPrice = decimal.NewFromFloat(item.DerivedUnitPrice())
			row.LineTotal = decimal.NewFromFloat(item.ItemTotal)
		}
	}
	if order != nil {
		e.customer = order.CustomerName
		e.grandTotal = decimal.NewFromFloat(order.TotalPrice)
	} else {
		e.recomputeLocked()
	}
	e.loaded = true
	e.mu.Unlock()

	e.events.emit(Event{Page: "order", Kind: EventLoaded})
	return nil
}

func (e *OrderEditor) addRowLocked() *Row {
	e.nextRowID++
	row := &Row{ID: e.nextRowID}
	e.rows = append(e.rows, row)
	return row
}

// AddRow appends an empty row and returns its id.
func (e *OrderEditor) AddRow() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	row := e.addRowLocked()
	e.recomputeLocked()
	return row.ID
}

// SelectProduct sets the product of a row; the unit price follows the
// catalogue price of the selection.
func (e *OrderEditor) SelectProduct(rowID int, productID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	row, err := e.rowLocked(rowID)
	if err != nil {
		return err
	}
	row.ProductID = productID
	e.updateRowLocked(row)
	return nil
}

// SetQuantity sets the quantity of a row. Input that does not parse counts
// as zero.
func (e *OrderEditor) SetQuantity(rowID int, raw string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	row, err := e.rowLocked(rowID)
	if err != nil {
		return err
	}
	row.QuantityRaw = raw
	row.Quantity = parseQuantity(raw)
	e.updateRowLocked(row)
	return nil
}

// RemoveRow drops a row and recomputes the grand total.
func (e *OrderEditor) RemoveRow(rowID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, row := range e.rows {
		if row.ID == rowID {
			e.rows = append(e.rows[:i], e.rows[i+1:]...)
			e.recomputeLocked()
			return nil
		}
	}
	return fmt.Errorf("row %d: %w", rowID, domain.ErrNotFound)
}

// ApplyRows replays posted row values onto the rows they belong to. Rows
// that changed are recomputed; a posted row the editor does not know yet is
// added, so a rebuilt editor keeps every row of the form.
func (e *OrderEditor) ApplyRows(inputs []RowInput) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, in := range inputs {
		if in.ID <= 0 {
			continue
		}
		row, err := e.rowLocked(in.ID)
		if err != nil {
			row = &Row{ID: in.ID}
			e.rows = append(e.rows, row)
			if in.ID > e.nextRowID {
				e.nextRowID = in.ID
			}
		}
		qty := parseQuantity(in.Quantity)
		if row.ProductID == in.ProductID && row.QuantityRaw == in.Quantity {
			continue
		}
		row.ProductID = in.ProductID
		row.QuantityRaw = in.Quantity
		row.Quantity = qty
		e.updateRowLocked(row)
	}
}

// SetCustomerName keeps the typed customer name across round trips.
func (e *OrderEditor) SetCustomerName(name string) {
	e.mu.Lock()
	e.customer = name
	e.mu.Unlock()
}

func (e *OrderEditor) rowLocked(rowID int) (*Row, error) {
	for _, row := range e.rows {
		if row.ID == rowID {
			return row, nil
		}
	}
	return nil, fmt.Errorf("row %d: %w", rowID, domain.ErrNotFound)
}

func (e *OrderEditor) updateRowLocked(row *Row) {
	row.UnitPrice = e.prices[row.ProductID]
	row.LineTotal = row.Quantity.Mul(row.UnitPrice).Round(2)
	e.recomputeLocked()
}

func (e *OrderEditor) recomputeLocked() {
	sum := decimal.Zero
	for _, row := range e.rows {
		sum = sum.Add(row.LineTotal)
	}
	e.grandTotal = sum
}

func parseQuantity(raw string) decimal.Decimal {
	qty, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return qty
}

// GrandTotal returns the current order total.
func (e *OrderEditor) GrandTotal() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grandTotal
}

func (e *OrderEditor) Snapshot() EditorSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := EditorSnapshot{
		CustomerName: e.customer,
		Products:     append([]domain.Product(nil), e.products...),
		Rows:         make([]Row, 0, len(e.rows)),
		GrandTotal:   e.grandTotal,
		Loaded:       e.loaded,
	}
	if e.editingID != nil {
		id := *e.editingID
		snap.EditingID = &id
	}
	for _, row := range e.rows {
		snap.Rows = append(snap.Rows, *row)
	}
	return snap
}

// Save validates the customer name and line items, then submits the order.
// Rows without a product or with a non-positive quantity are left out; at
// least one valid row is required.
func (e *OrderEditor) Save(ctx context.Context, customerName string) (int64, error) {
	e.mu.Lock()
	e.customer = customerName
	payload, err := e.payloadLocked()
	e.mu.Unlock()
	if err != nil {
		return 0, err
	}

	id, err := e.orders.SaveOrder(ctx, payload)
	if err != nil {
		log.Error().Err(err).Str("customer", payload.CustomerName).Msg("order editor: failed to save order")
		return 0, err
	}

	e.events.emit(Event{Page: "order", Kind: EventMutated})
	if payload.OrderID != nil {
		return *payload.OrderID, nil
	}
	return id, nil
}

func (e *OrderEditor) payloadLocked() (domain.OrderPayload, error) {
	name := strings.TrimSpace(e.customer)
	if name == "" {
		return domain.OrderPayload{}, domain.NewValidationError("customer_name", "Enter customer name")
	}

	details := make([]domain.OrderLinePayload, 0, len(e.rows))
	for _, row := range e.rows {
		if !row.Valid() {
			continue
		}
		details = append(details, domain.OrderLinePayload{
			ProductID:  row.ProductID,
			Quantity:   row.Quantity.InexactFloat64(),
			TotalPrice: row.LineTotal.InexactFloat64(),
		})
	}
	if len(details) == 0 {
		return domain.OrderPayload{}, domain.NewValidationError("order_details", "Add at least one valid item")
	}

	payload := domain.OrderPayload{
		CustomerName: name,
		TotalPrice:   e.grandTotal.InexactFloat64(),
		Datetime:     e.now().Format(domain.OrderTimestampLayout),
		OrderDetails: details,
	}
	if e.editingID != nil {
		id := *e.editingID
		payload.OrderID = &id
	}
	return payload, nil
}

func (e *OrderEditor) Subscribe(fn func(Event)) func() {
	return e.events.Subscribe(fn)
}

func (e *OrderEditor) Close() {
	e.events.Close()
}
