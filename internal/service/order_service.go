package service

import (
	"context"

	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/andresuchdata/storeadmin/internal/repository"
)

type OrderService struct {
	repo    repository.OrderRepository
	catalog *CatalogService
}

func NewOrderService(repo repository.OrderRepository, catalog *CatalogService) *OrderService {
	return &OrderService{repo: repo, catalog: catalog}
}

// ListOrders returns the recent orders or every order, in server order.
func (s *OrderService) ListOrders(ctx context.Context, recent bool) ([]domain.OrderSummary, error) {
	if recent {
		return s.repo.GetRecentOrders(ctx)
	}
	return s.repo.GetOrders(ctx)
}

func (s *OrderService) GetOrderDetails(ctx context.Context, id int64) ([]domain.OrderDetailLine, error) {
	return s.repo.GetOrderDetails(ctx, id)
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *OrderService) SaveOrder(ctx context.Context, payload domain.OrderPayload) (int64, error) {
	id, err := s.repo.SaveOrder(ctx, payload)
	if s.catalog != nil {
		s.catalog.InvalidateProducts(ctx)
	}
	return id, err
}

func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	err := s.repo.DeleteOrder(ctx, id)
	if s.catalog != nil {
		s.catalog.InvalidateProducts(ctx)
	}
	return err
}
