package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	catalogKeyPrefix   = "catalog:"
	catalogUOMsKey     = catalogKeyPrefix + "uoms"
	catalogProductsKey = catalogKeyPrefix + "products"
)

// CatalogCache holds the reference lists shared by every dashboard session.
type CatalogCache interface {
	GetUOMs(ctx context.Context) ([]domain.UOM, bool, error)
	SetUOMs(ctx context.Context, uoms []domain.UOM) error
	GetProducts(ctx context.Context) ([]domain.Product, bool, error)
	SetProducts(ctx context.Context, products []domain.Product) error
	InvalidateProducts(ctx context.Context) error
	InvalidateAll(ctx context.Context) error
}

type redisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopCatalogCache struct{}

// NewCatalogCache returns a redis-backed cache, or a noop one when client is nil.
func NewCatalogCache(client *redis.Client, ttlSeconds int) CatalogCache {
	if client == nil {
		return &noopCatalogCache{}
	}
	return &redisCatalogCache{client: client, ttl: ttlOrDefault(ttlSeconds)}
}

func NewNoopCatalogCache() CatalogCache {
	return &noopCatalogCache{}
}

func (c *redisCatalogCache) GetUOMs(ctx context.Context) ([]domain.UOM, bool, error) {
	var uoms []domain.UOM
	ok, err := c.get(ctx, catalogUOMsKey, &uoms)
	return uoms, ok, err
}

func (c *redisCatalogCache) SetUOMs(ctx context.Context, uoms []domain.UOM) error {
	return c.set(ctx, catalogUOMsKey, uoms)
}

func (c *redisCatalogCache) GetProducts(ctx context.Context) ([]domain.Product, bool, error) {
	var products []domain.Product
	ok, err := c.get(ctx, catalogProductsKey, &products)
	return products, ok, err
}

func (c *redisCatalogCache) SetProducts(ctx context.Context, products []domain.Product) error {
	return c.set(ctx, catalogProductsKey, products)
}

func (c *redisCatalogCache) InvalidateProducts(ctx context.Context) error {
	return c.client.Del(ctx, catalogProductsKey).Err()
}

func (c *redisCatalogCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, catalogKeyPrefix, scanBatchSize)
}

func (c *redisCatalogCache) get(ctx context.Context, key string, out any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("decode %s cache: %w", key, err)
	}
	return true, nil
}

func (c *redisCatalogCache) set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s cache: %w", key, err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopCatalogCache) GetUOMs(ctx context.Context) ([]domain.UOM, bool, error) {
	return nil, false, nil
}

func (n *noopCatalogCache) SetUOMs(ctx context.Context, uoms []domain.UOM) error {
	return nil
}

func (n *noopCatalogCache) GetProducts(ctx context.Context) ([]domain.Product, bool, error) {
	return nil, false, nil
}

func (n *noopCatalogCache) SetProducts(ctx context.Context, products []domain.Product) error {
	return nil
}

func (n *noopCatalogCache) InvalidateProducts(ctx context.Context) error {
	return nil
}

func (n *noopCatalogCache) InvalidateAll(ctx context.Context) error {
	return nil
}
