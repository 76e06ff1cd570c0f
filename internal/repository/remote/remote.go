// internal/repository/remote/remote.go
package remote

import (
	"context"
	"fmt"

	"github.com/andresuchdata/storeadmin/internal/apiclient"
	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/andresuchdata/storeadmin/internal/repository"
)

// Repository implements the repository interfaces on top of the remote REST
// API.
type Repository struct {
	client *apiclient.Client
}

func NewRepository(client *apiclient.Client) *Repository {
	return &Repository{client: client}
}

var (
	_ repository.CatalogRepository     = (*Repository)(nil)
	_ repository.OrderRepository       = (*Repository)(nil)
	_ repository.CalculationRepository = (*Repository)(nil)
)

func (r *Repository) GetUOMs(ctx context.Context) ([]domain.UOM, error) {
	var uoms []domain.UOM
	if err := r.client.Get(ctx, "/getUOM", &uoms); err != nil {
		return nil, err
	}
	return uoms, nil
}

func (r *Repository) GetProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := r.client.Get(ctx, "/getProducts", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repository) AddProduct(ctx context.Context, input domain.ProductInput) (int64, error) {
	input.ID = nil
	var resp struct {
		ProductID int64 `json:"product_id"`
	}
	if err := r.client.Post(ctx, "/addProduct", input, &resp); err != nil {
		return 0, err
	}
	return resp.ProductID, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, input domain.ProductInput) error {
	if input.ID == nil {
		return fmt.Errorf("update product: missing product id")
	}
	return r.client.Post(ctx, "/updateProduct", input, nil)
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	return r.client.Delete(ctx, fmt.Sprintf("/deleteProduct/%d", id), nil)
}

func (r *Repository) GetOrders(ctx context.Context) ([]domain.OrderSummary, error) {
	var orders []domain.OrderSummary
	if err := r.client.Get(ctx, "/getOrders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Repository) GetRecentOrders(ctx context.Context) ([]domain.OrderSummary, error) {
	var orders []domain.OrderSummary
	if err := r.client.Get(ctx, "/getRecentOrders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrderDetails returns domain.ErrNotFound when the order has no lines.
func (r *Repository) GetOrderDetails(ctx context.Context, id int64) ([]domain.OrderDetailLine, error) {
	var lines []domain.OrderDetailLine
	if err := r.client.Get(ctx, fmt.Sprintf("/getOrderDetails/%d", id), &lines); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("order %d details: %w", id, domain.ErrNotFound)
	}
	return lines, nil
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var order *domain.Order
	if err := r.client.Get(ctx, fmt.Sprintf("/getOrder/%d", id), &order); err != nil {
		if apiclient.IsNotFound(err) {
			return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	return order, nil
}

// SaveOrder creates the order when payload.OrderID is nil and replaces it
// otherwise; the API uses the same endpoint for both.
func (r *Repository) SaveOrder(ctx context.Context, payload domain.OrderPayload) (int64, error) {
	var resp struct {
		OrderID int64 `json:"order_id"`
	}
	if err := r.client.Post(ctx, "/addOrder", payload, &resp); err != nil {
		return 0, err
	}
	return resp.OrderID, nil
}

func (r *Repository) DeleteOrder(ctx context.Context, id int64) error {
	return r.client.Delete(ctx, fmt.Sprintf("/deleteOrder/%d", id), nil)
}

// The calculation endpoints only read raw JSON bodies.

func (r *Repository) RevenueSimulation(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, error) {
	var result domain.SimulationResult
	if err := r.client.Post(ctx, "/api/calc/revenue", req, &result, apiclient.WithEncoding(apiclient.EncodingJSON)); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *Repository) InventorySpend(ctx context.Context, req domain.SpendRequest) (*domain.SpendResult, error) {
	var result domain.SpendResult
	if err := r.client.Post(ctx, "/api/calc/spend", req, &result, apiclient.WithEncoding(apiclient.EncodingJSON)); err != nil {
		return nil, err
	}
	return &result, nil
}
