package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/rs/zerolog/log"
)

// ViewMode selects which order set the dashboard lists.
type ViewMode int

const (
	ViewRecent ViewMode = iota
	ViewAll
)

func (v ViewMode) String() string {
	if v == ViewAll {
		return "all"
	}
	return "recent"
}

// Opposite returns the other view.
func (v ViewMode) Opposite() ViewMode {
	if v == ViewAll {
		return ViewRecent
	}
	return ViewAll
}

// ParseViewMode maps "all" to ViewAll and anything else to ViewRecent.
func ParseViewMode(s string) ViewMode {
	if s == "all" {
		return ViewAll
	}
	return ViewRecent
}

type DashboardOptions struct {
	InitialView ViewMode
	Seed        int
}

// DashboardSnapshot is what the dashboard page renders.
type DashboardSnapshot struct {
	View  ViewMode
	State LoadState
	Err   error
	Query string
	Rows  []domain.OrderSummary
	Total int
}

// OrderDetail is the content of the order detail view.
type OrderDetail struct {
	OrderID      int64
	CustomerName string
	Date         string
	TotalPrice   float64
	Lines        []domain.OrderDetailLine
	EditURL      string
}

// SimulationRow is one breakdown row with its profit colour class.
type SimulationRow struct {
	domain.SimulationDetail
	ProfitClass string
}

type SimulationView struct {
	Request            domain.SimulationRequest
	Summary            domain.SimulationSummary
	SummaryProfitClass string
	Rows               []SimulationRow
}

type DashboardController struct {
	orders  OrderSource
	catalog ProductLister
	sim     Simulator
	seed    int

	mu     sync.Mutex
	view   ViewMode
	state  LoadState
	err    error
	cached []domain.OrderSummary
	query  string

	gen    Generation
	events subscribers
}

func NewDashboardController(orders OrderSource, catalog ProductLister, sim Simulator, opts DashboardOptions) *DashboardController {
	return &DashboardController{
		orders:  orders,
		catalog: catalog,
		sim:     sim,
		seed:    opts.Seed,
		view:    opts.InitialView,
	}
}

// Load fetches the order set of the current view and replaces the cached list.
// A load overtaken by a newer one returns ErrStaleResponse and leaves state
// untouched.
func (c *DashboardController) Load(ctx context.Context) error {
	c.mu.Lock()
	tag := c.gen.Next()
	view := c.view
	c.state = StateLoading
	c.mu.Unlock()
	c.events.emit(Event{Page: "dashboard", Kind: EventLoading})

	orders, err := c.orders.ListOrders(ctx, view == ViewRecent)

	c.mu.Lock()
	if !c.gen.Current(tag) {
		c.mu.Unlock()
		log.Debug().Str("view", view.String()).Msg("dashboard: dropped stale order list")
		return ErrStaleResponse
	}
	if err != nil {
		c.state = StateError
		c.err = err
		c.mu.Unlock()
		log.Error().Err(err).Str("view", view.String()).Msg("dashboard: failed to load orders")
		c.events.emit(Event{Page: "dashboard", Kind: EventFailed, Err: err})
		return err
	}
	c.cached = orders
	c.state = StateLoaded
	c.err = nil
	c.mu.Unlock()

	c.events.emit(Event{Page: "dashboard", Kind: EventLoaded})
	return nil
}

// SetView switches to view and reloads when it differs from the current one
// or nothing has been loaded yet.
func (c *DashboardController) SetView(ctx context.Context, view ViewMode) error {
	c.mu.Lock()
	unchanged := c.view == view && c.state == StateLoaded
	c.view = view
	c.mu.Unlock()

	if unchanged {
		return nil
	}
	return c.Load(ctx)
}

// ToggleView flips between the recent and all order sets and reloads.
func (c *DashboardController) ToggleView(ctx context.Context) error {
	c.mu.Lock()
	c.view = c.view.Opposite()
	c.mu.Unlock()
	return c.Load(ctx)
}

// Search records the filter text and returns the filtered cached list. It
// never fetches.
func (c *DashboardController) Search(q string) []domain.OrderSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = q
	return FilterOrders(c.cached, q)
}

func (c *DashboardController) Snapshot() DashboardSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DashboardSnapshot{
		View:  c.view,
		State: c.state,
		Err:   c.err,
		Query: c.query,
		Rows:  FilterOrders(c.cached, c.query),
		Total: len(c.cached),
	}
}

// OpenOrder fetches the line items of an order for the detail view.
func (c *DashboardController) OpenOrder(ctx context.Context, id int64) (*OrderDetail, error) {
	lines, err := c.orders.GetOrderDetails(ctx, id)
	if err != nil {
		log.Error().Err(err).Int64("order_id", id).Msg("dashboard: failed to load order details")
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}

	detail := &OrderDetail{
		OrderID: id,
		Lines:   lines,
		EditURL: EditOrderURL(id),
	}

	c.mu.Lock()
	for _, o := range c.cached {
		if o.ID == id {
			detail.CustomerName = o.CustomerName
			detail.Date = o.FormattedDate()
			detail.TotalPrice = o.TotalPrice
			break
		}
	}
	c.mu.Unlock()

	if detail.TotalPrice == 0 {
		for _, l := range lines {
			detail.TotalPrice += l.ItemTotal
		}
	}
	return detail, nil
}

// DeleteOrder deletes the order once confirmed, then reloads the current
// order set.
func (c *DashboardController) DeleteOrder(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := c.orders.DeleteOrder(ctx, id); err != nil {
		log.Error().Err(err).Int64("order_id", id).Msg("dashboard: failed to delete order")
		return err
	}
	c.events.emit(Event{Page: "dashboard", Kind: EventMutated})
	return c.Load(ctx)
}

// EditOrderURL is the order editor location for an existing order.
func EditOrderURL(id int64) string {
	return fmt.Sprintf("/order?id=%d", id)
}

// OpenSimulation returns the products offered in the simulation selector.
func (c *DashboardController) OpenSimulation(ctx context.Context) ([]domain.Product, error) {
	products, err := c.catalog.ListProducts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("dashboard: failed to load simulation products")
		return nil, err
	}
	return products, nil
}

// ProductCount returns the number of products available, for the banner.
func (c *DashboardController) ProductCount(ctx context.Context) (int, error) {
	products, err := c.catalog.ListProducts(ctx)
	if err != nil {
		return 0, err
	}
	return len(products), nil
}

// RunSimulation posts the selection with the fixed seed and classifies the
// returned profits.
func (c *DashboardController) RunSimulation(ctx context.Context, productIDs []int64, days int) (*SimulationView, error) {
	req := domain.SimulationRequest{
		ProductIDs: productIDs,
		Days:       days,
		Seed:       c.seed,
	}
	if err := domain.ValidateSimulation(req); err != nil {
		return nil, err
	}

	result, err := c.sim.RevenueSimulation(ctx, req)
	if err != nil {
		log.Error().Err(err).Ints64("product_ids", productIDs).Int("days", days).Msg("dashboard: simulation failed")
		return nil, err
	}

	view := &SimulationView{
		Request:            req,
		Summary:            result.Summary,
		SummaryProfitClass: domain.ProfitClass(result.Summary.TotalProfit),
		Rows:               make([]SimulationRow, 0, len(result.Details)),
	}
	for _, d := range result.Details {
		view.Rows = append(view.Rows, SimulationRow{SimulationDetail: d, ProfitClass: domain.ProfitClass(d.Profit)})
	}
	return view, nil
}

func (c *DashboardController) Subscribe(fn func(Event)) func() {
	return c.events.Subscribe(fn)
}

// Close detaches all subscribers.
func (c *DashboardController) Close() {
	c.events.Close()
}
