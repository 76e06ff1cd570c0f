// internal/repository/repository.go
package repository

import (
	"context"

	"github.com/andresuchdata/storeadmin/internal/domain"
)

// CatalogRepository reads and mutates products and units of measure.
type CatalogRepository interface {
	GetUOMs(ctx context.Context) ([]domain.UOM, error)
	GetProducts(ctx context.Context) ([]domain.Product, error)
	AddProduct(ctx context.Context, input domain.ProductInput) (int64, error)
	UpdateProduct(ctx context.Context, input domain.ProductInput) error
	DeleteProduct(ctx context.Context, id int64) error
}

type OrderRepository interface {
	GetOrders(ctx context.Context) ([]domain.OrderSummary, error)
	GetRecentOrders(ctx context.Context) ([]domain.OrderSummary, error)
	GetOrderDetails(ctx context.Context, id int64) ([]domain.OrderDetailLine, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	SaveOrder(ctx context.Context, payload domain.OrderPayload) (int64, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// CalculationRepository runs the server-side calculations.
type CalculationRepository interface {
	RevenueSimulation(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, error)
	InventorySpend(ctx context.Context, req domain.SpendRequest) (*domain.SpendResult, error)
}
