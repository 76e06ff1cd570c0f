package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	uoms          []domain.UOM
	products      []domain.Product
	productCalls  int
	uomCalls      int
	mutationErr   error
	deleted       []int64
	recentCalls   int
	allCalls      int
	savedPayloads []domain.OrderPayload
	simulations   []domain.SimulationRequest
	spends        []domain.SpendRequest
}

func (f *fakeRepo) GetUOMs(ctx context.Context) ([]domain.UOM, error) {
	f.uomCalls++
	return f.uoms, nil
}

func (f *fakeRepo) GetProducts(ctx context.Context) ([]domain.Product, error) {
	f.productCalls++
	return f.products, nil
}

func (f *fakeRepo) AddProduct(ctx context.Context, input domain.ProductInput) (int64, error) {
	return 9, f.mutationErr
}

func (f *fakeRepo) UpdateProduct(ctx context.Context, input domain.ProductInput) error {
	return f.mutationErr
}

func (f *fakeRepo) DeleteProduct(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.mutationErr
}

func (f *fakeRepo) GetOrders(ctx context.Context) ([]domain.OrderSummary, error) {
	f.allCalls++
	return nil, nil
}

func (f *fakeRepo) GetRecentOrders(ctx context.Context) ([]domain.OrderSummary, error) {
	f.recentCalls++
	return nil, nil
}

func (f *fakeRepo) GetOrderDetails(ctx context.Context, id int64) ([]domain.OrderDetailLine, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return &domain.Order{ID: id}, nil
}

func (f *fakeRepo) SaveOrder(ctx context.Context, payload domain.OrderPayload) (int64, error) {
	f.savedPayloads = append(f.savedPayloads, payload)
	return 1, nil
}

func (f *fakeRepo) DeleteOrder(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepo) RevenueSimulation(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, error) {
	f.simulations = append(f.simulations, req)
	return &domain.SimulationResult{}, nil
}

func (f *fakeRepo) InventorySpend(ctx context.Context, req domain.SpendRequest) (*domain.SpendResult, error) {
	f.spends = append(f.spends, req)
	return &domain.SpendResult{}, nil
}

// memoryCatalogCache is a map-backed CatalogCache for tests.
type memoryCatalogCache struct {
	uoms        []domain.UOM
	products    []domain.Product
	invalidated int
}

func (m *memoryCatalogCache) GetUOMs(ctx context.Context) ([]domain.UOM, bool, error) {
	return m.uoms, m.uoms != nil, nil
}

func (m *memoryCatalogCache) SetUOMs(ctx context.Context, uoms []domain.UOM) error {
	m.uoms = uoms
	return nil
}

func (m *memoryCatalogCache) GetProducts(ctx context.Context) ([]domain.Product, bool, error) {
	return m.products, m.products != nil, nil
}

func (m *memoryCatalogCache) SetProducts(ctx context.Context, products []domain.Product) error {
	m.products = products
	return nil
}

func (m *memoryCatalogCache) InvalidateProducts(ctx context.Context) error {
	m.invalidated++
	m.products = nil
	return nil
}

func (m *memoryCatalogCache) InvalidateAll(ctx context.Context) error {
	m.uoms, m.products = nil, nil
	return nil
}

// slowProductsRepo holds the first product load until released.
type slowProductsRepo struct {
	*fakeRepo
	mu      sync.Mutex
	loads   int
	started chan struct{}
	release chan struct{}
}

func (r *slowProductsRepo) GetProducts(ctx context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	r.loads++
	n := r.loads
	products := append([]domain.Product(nil), r.products...)
	r.mu.Unlock()

	if n == 1 {
		close(r.started)
		<-r.release
	}
	return products, nil
}

func (r *slowProductsRepo) AddProduct(ctx context.Context, input domain.ProductInput) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = append(r.products, domain.Product{ID: 2, Name: input.Name})
	return 2, nil
}

func TestCatalogServiceDropsLoadOverlappingMutation(t *testing.T) {
	repo := &slowProductsRepo{
		fakeRepo: &fakeRepo{products: []domain.Product{{ID: 1, Name: "Rice"}}},
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	mem := &memoryCatalogCache{}
	svc := NewCatalogService(repo, mem)
	ctx := context.Background()

	done := make(chan []domain.Product)
	go func() {
		products, err := svc.ListProducts(ctx)
		assert.NoError(t, err)
		done <- products
	}()

	<-repo.started
	_, err := svc.AddProduct(ctx, domain.ProductInput{Name: "Sugar"})
	require.NoError(t, err)
	close(repo.release)
	assert.Len(t, <-done, 1, "the overlapping load still answers its caller")

	assert.Nil(t, mem.products, "the pre-mutation list is not cached")

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, 2, repo.loads)
}

func TestCatalogServiceCachesReads(t *testing.T) {
	repo := &fakeRepo{
		uoms:     []domain.UOM{{ID: 1, Name: "kg"}},
		products: []domain.Product{{ID: 1, Name: "Apples"}},
	}
	mem := &memoryCatalogCache{}
	svc := NewCatalogService(repo, mem)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		products, err := svc.ListProducts(ctx)
		require.NoError(t, err)
		assert.Len(t, products, 1)
		_, err = svc.ListUOMs(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, repo.productCalls)
	assert.Equal(t, 1, repo.uomCalls)
}

func TestCatalogServiceMutationInvalidatesProducts(t *testing.T) {
	repo := &fakeRepo{products: []domain.Product{{ID: 1}}}
	mem := &memoryCatalogCache{}
	svc := NewCatalogService(repo, mem)
	ctx := context.Background()

	_, err := svc.ListProducts(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, 1))
	assert.Equal(t, 1, mem.invalidated)

	_, err = svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.productCalls)

	repo.mutationErr = errors.New("boom")
	_, err = svc.AddProduct(ctx, domain.ProductInput{Name: "x"})
	assert.Error(t, err)
	assert.Equal(t, 2, mem.invalidated)

	repo.mutationErr = nil
	require.NoError(t, svc.UpdateProduct(ctx, domain.ProductInput{Name: "x"}))
	assert.Equal(t, 3, mem.invalidated)
}

func TestOrderServiceRoutesViews(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewOrderService(repo, NewCatalogService(repo, nil))
	ctx := context.Background()

	_, _ = svc.ListOrders(ctx, true)
	_, _ = svc.ListOrders(ctx, false)
	_, _ = svc.ListOrders(ctx, false)

	assert.Equal(t, 1, repo.recentCalls)
	assert.Equal(t, 2, repo.allCalls)
}

func TestCalculationServiceValidatesBeforeCalling(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewCalculationService(repo)
	ctx := context.Background()

	_, err := svc.RevenueSimulation(ctx, domain.SimulationRequest{Days: 5, Seed: 123})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.RevenueSimulation(ctx, domain.SimulationRequest{ProductIDs: []int64{1}, Days: 0, Seed: 123})
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, repo.simulations)

	_, err = svc.RevenueSimulation(ctx, domain.SimulationRequest{ProductIDs: []int64{1, 3}, Days: 5, Seed: 123})
	require.NoError(t, err)
	assert.Len(t, repo.simulations, 1)

	_, err = svc.InventorySpend(ctx, domain.SpendRequest{Year: 1999, Month: 1})
	assert.True(t, domain.IsValidation(err))
	_, err = svc.InventorySpend(ctx, domain.SpendRequest{Year: 2025, Month: 13})
	assert.True(t, domain.IsValidation(err))
	_, err = svc.InventorySpend(ctx, domain.SpendRequest{Year: 2025, Month: 1, Orders: []domain.SpendOrder{{Date: "2025-01-03", Qty: 2, Cost: 1.5}}})
	assert.NoError(t, err)
}

func TestCalculationServiceSkipsUndatedSpendOrders(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewCalculationService(repo)

	_, err := svc.InventorySpend(context.Background(), domain.SpendRequest{Year: 2025, Month: 1, Orders: []domain.SpendOrder{
		{Date: "2025-01-01 10:00:00", Qty: 1, Cost: 2, Category: "food"},
		{Date: "yesterday", Qty: 1, Cost: 5, Category: "food"},
		{Date: "2025-01-02T08:30", Qty: 3, Cost: 1, Category: "tools"},
	}})
	require.NoError(t, err)
	require.Len(t, repo.spends, 1)

	sent := repo.spends[0].Orders
	require.Len(t, sent, 2)
	assert.Equal(t, "2025-01-01 10:00:00", sent[0].Date)
	assert.Equal(t, "tools", sent[1].Category)
}
