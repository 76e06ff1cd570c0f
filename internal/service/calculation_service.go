package service

import (
	"context"

	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/andresuchdata/storeadmin/internal/repository"
	"github.com/rs/zerolog/log"
)

type CalculationService struct {
	repo repository.CalculationRepository
}

func NewCalculationService(repo repository.CalculationRepository) *CalculationService {
	return &CalculationService{repo: repo}
}

// RevenueSimulation validates req and asks the API to run the simulation.
func (s *CalculationService) RevenueSimulation(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, error) {
	if err := domain.ValidateSimulation(req); err != nil {
		return nil, err
	}
	return s.repo.RevenueSimulation(ctx, req)
}

// InventorySpend validates req and asks the API for the monthly spend. Orders
// with a date that does not parse are left out.
func (s *CalculationService) InventorySpend(ctx context.Context, req domain.SpendRequest) (*domain.SpendResult, error) {
	if err := domain.ValidateSpend(req); err != nil {
		return nil, err
	}
	req, dropped := req.DropUndatedOrders()
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("spend: skipping orders with invalid dates")
	}
	return s.repo.InventorySpend(ctx, req)
}
