package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

const (
	keyTokenPackages = "catalog:packages"
	keyDataPlans     = "catalog:dataplans"
)

func productKey(purchaseType models.PurchaseType, productID string) string {
	return fmt.Sprintf("catalog:product:%s:%s", purchaseType, productID)
}

// CatalogCache — read-through кэш поверх каталога. Ошибки Redis не
// прерывают запрос: чтение уходит в исходный каталог.
type CatalogCache struct {
	next  storage.Catalog
	cache *Cache
	ttl   time.Duration
	log   *slog.Logger
}

var _ storage.Catalog = (*CatalogCache)(nil)

// NewCatalogCache оборачивает next кэшем с временем жизни ttl.
func NewCatalogCache(next storage.Catalog, cache *Cache, ttl time.Duration, log *slog.Logger) *CatalogCache {
	return &CatalogCache{next: next, cache: cache, ttl: ttl, log: log}
}

// FindProduct ищет продукт в кэше, затем в каталоге. Отсутствие продукта не кэшируется.
func (c *CatalogCache) FindProduct(ctx context.Context, purchaseType models.PurchaseType, productID string) (models.Product, error) {
	key := productKey(purchaseType, productID)

	var (
		found bool
		err   error
	)
	switch purchaseType {
	case models.PurchaseTokenPackage:
		var p models.TokenPackage
		if found, err = c.cache.Get(ctx, key, &p); err == nil && found {
			return &p, nil
		}
	case models.PurchaseDataPlan:
		var p models.DataPlan
		if found, err = c.cache.Get(ctx, key, &p); err == nil && found {
			return &p, nil
		}
	}
	if err != nil {
		c.log.Warn("catalog cache read failed", sl.Err(err), slog.String("key", key))
	}

	product, err := c.next.FindProduct(ctx, purchaseType, productID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, product)
	return product, nil
}

// ListTokenPackages возвращает пакеты из кэша или каталога.
func (c *CatalogCache) ListTokenPackages(ctx context.Context) ([]*models.TokenPackage, error) {
	var packages []*models.TokenPackage
	found, err := c.cache.Get(ctx, keyTokenPackages, &packages)
	if err != nil {
		c.log.Warn("catalog cache read failed", sl.Err(err), slog.String("key", keyTokenPackages))
	}
	if found {
		return packages, nil
	}

	packages, err = c.next.ListTokenPackages(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, keyTokenPackages, packages)
	return packages, nil
}

// ListDataPlans возвращает пакеты интернета из кэша или каталога.
func (c *CatalogCache) ListDataPlans(ctx context.Context) ([]*models.DataPlan, error) {
	var plans []*models.DataPlan
	found, err := c.cache.Get(ctx, keyDataPlans, &plans)
	if err != nil {
		c.log.Warn("catalog cache read failed", sl.Err(err), slog.String("key", keyDataPlans))
	}
	if found {
		return plans, nil
	}

	plans, err = c.next.ListDataPlans(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, keyDataPlans, plans)
	return plans, nil
}

func (c *CatalogCache) store(ctx context.Context, key string, value any) {
	if err := c.cache.Set(ctx, key, value, c.ttl); err != nil {
		c.log.Warn("catalog cache write failed", sl.Err(err), slog.String("key", key))
	}
}
