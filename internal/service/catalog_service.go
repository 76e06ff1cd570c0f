package service

import (
	"context"
	"sync/atomic"

	"github.com/andresuchdata/storeadmin/internal/cache"
	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/andresuchdata/storeadmin/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

type CatalogService struct {
	repo  repository.CatalogRepository
	cache cache.CatalogCache
	group singleflight.Group

	// productsVersion moves on every product invalidation; a load only
	// caches its list when no invalidation happened while it was in flight.
	productsVersion atomic.Uint64
}

func NewCatalogService(repo repository.CatalogRepository, cacheImpl cache.CatalogCache) *CatalogService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopCatalogCache()
	}
	return &CatalogService{repo: repo, cache: cacheImpl}
}

func (s *CatalogService) ListUOMs(ctx context.Context) ([]domain.UOM, error) {
	if uoms, ok, err := s.cache.GetUOMs(ctx); err == nil && ok {
		return uoms, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("catalog: cache get uoms failed")
	}

	v, err, _ := s.group.Do("uoms", func() (any, error) {
		uoms, err := s.repo.GetUOMs(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetUOMs(ctx, uoms); err != nil {
			log.Warn().Err(err).Msg("catalog: cache set uoms failed")
		}
		return uoms, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.UOM), nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if products, ok, err := s.cache.GetProducts(ctx); err == nil && ok {
		return products, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("catalog: cache get products failed")
	}

	v, err, _ := s.group.Do("products", func() (any, error) {
		version := s.productsVersion.Load()
		products, err := s.repo.GetProducts(ctx)
		if err != nil {
			return nil, err
		}
		s.cacheProducts(ctx, version, products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

func (s *CatalogService) AddProduct(ctx context.Context, input domain.ProductInput) (int64, error) {
	id, err := s.repo.AddProduct(ctx, input)
	s.invalidateProducts(ctx)
	return id, err
}

func (s *CatalogService) UpdateProduct(ctx context.Context, input domain.ProductInput) error {
	err := s.repo.UpdateProduct(ctx, input)
	s.invalidateProducts(ctx)
	return err
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	err := s.repo.DeleteProduct(ctx, id)
	s.invalidateProducts(ctx)
	return err
}

// InvalidateProducts drops the cached product list. A failed mutation may
// still have been applied upstream, so callers invalidate regardless of the
// outcome.
func (s *CatalogService) InvalidateProducts(ctx context.Context) {
	s.invalidateProducts(ctx)
}

// cacheProducts stores a list fetched at version. If an invalidation lands
// while the list is written, the entry is dropped again.
func (s *CatalogService) cacheProducts(ctx context.Context, version uint64, products []domain.Product) {
	if s.productsVersion.Load() != version {
		log.Debug().Msg("catalog: product list changed during load, not caching")
		return
	}
	if err := s.cache.SetProducts(ctx, products); err != nil {
		log.Warn().Err(err).Msg("catalog: cache set products failed")
		return
	}
	if s.productsVersion.Load() != version {
		if err := s.cache.InvalidateProducts(ctx); err != nil {
			log.Warn().Err(err).Msg("catalog: cache invalidate products failed")
		}
	}
}

func (s *CatalogService) invalidateProducts(ctx context.Context) {
	s.productsVersion.Add(1)
	s.group.Forget("products")
	if err := s.cache.InvalidateProducts(ctx); err != nil {
		log.Warn().Err(err).Msg("catalog: cache invalidate products failed")
	}
}
