package controller

import (
	"context"
	"sync"

	"github.com/andresuchdata/storeadmin/internal/domain"
)

// fakeBackend implements every controller dependency and records calls.
type fakeBackend struct {
	mu sync.Mutex

	uoms      []domain.UOM
	products  []domain.Product
	recent    []domain.OrderSummary
	all       []domain.OrderSummary
	details   map[int64][]domain.OrderDetailLine
	orders    map[int64]*domain.Order
	simResult *domain.SimulationResult

	listErr error

	calls         []string
	listRecent    int
	listAll       int
	productLists  int
	deletedOrders []int64
	deletedProds  []int64
	added         []domain.ProductInput
	updated       []domain.ProductInput
	saved         []domain.OrderPayload
	simulations   []domain.SimulationRequest

	// block, when set, is waited on by the next ListOrders call after it
	// signals started.
	block   chan struct{}
	started chan struct{}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) ListUOMs(ctx context.Context) ([]domain.UOM, error) {
	f.record("uoms")
	return f.uoms, nil
}

func (f *fakeBackend) ListProducts(ctx context.Context) ([]domain.Product, error) {
	f.record("products")
	f.mu.Lock()
	f.productLists++
	f.mu.Unlock()
	return f.products, nil
}

func (f *fakeBackend) AddProduct(ctx context.Context, input domain.ProductInput) (int64, error) {
	f.record("addProduct")
	f.mu.Lock()
	f.added = append(f.added, input)
	f.mu.Unlock()
	return 99, nil
}

func (f *fakeBackend) UpdateProduct(ctx context.Context, input domain.ProductInput) error {
	f.record("updateProduct")
	f.mu.Lock()
	f.updated = append(f.updated, input)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) DeleteProduct(ctx context.Context, id int64) error {
	f.record("deleteProduct")
	f.mu.Lock()
	f.deletedProds = append(f.deletedProds, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) ListOrders(ctx context.Context, recent bool) ([]domain.OrderSummary, error) {
	f.mu.Lock()
	block, started := f.block, f.started
	f.block, f.started = nil, nil
	if recent {
		f.listRecent++
	} else {
		f.listAll++
	}
	f.calls = append(f.calls, "orders")
	f.mu.Unlock()

	if block != nil {
		close(started)
		<-block
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	if recent {
		return f.recent, nil
	}
	return f.all, nil
}

func (f *fakeBackend) GetOrderDetails(ctx context.Context, id int64) ([]domain.OrderDetailLine, error) {
	f.record("orderDetails")
	return f.details[id], nil
}

func (f *fakeBackend) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	f.record("getOrder")
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (f *fakeBackend) SaveOrder(ctx context.Context, payload domain.OrderPayload) (int64, error) {
	f.record("addOrder")
	f.mu.Lock()
	f.saved = append(f.saved, payload)
	f.mu.Unlock()
	return 42, nil
}

func (f *fakeBackend) DeleteOrder(ctx context.Context, id int64) error {
	f.record("deleteOrder")
	f.mu.Lock()
	f.deletedOrders = append(f.deletedOrders, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) RevenueSimulation(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, error) {
	f.record("simulate")
	f.mu.Lock()
	f.simulations = append(f.simulations, req)
	f.mu.Unlock()
	return f.simResult, nil
}

func sampleProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Rice", UOMID: 1, UOMName: "kg", PricePerUnit: 12.5, Quantity: 40},
		{ID: 2, Name: "Soap", UOMID: 2, UOMName: "piece", PricePerUnit: 3, Quantity: 100},
		{ID: 3, Name: "Oil", UOMID: 3, UOMName: "litre", PricePerUnit: 7.25, Quantity: 12},
	}
}
