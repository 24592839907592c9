package adapters

import (
	"context"
	"time"

	"github.com/mealtrail/subscription-service/internal/app/subscription/contracts"
	"github.com/mealtrail/subscription-service/internal/app/subscription/domain"
	"github.com/mealtrail/subscription-service/internal/services"
)

var _ contracts.PolicyCatalog = (*CachedPolicyCatalog)(nil)

const policyCacheKey = "refund-policies:active"

// CachedPolicyCatalog is a read-through redis cache in front of the policy
// catalog. Cache misses and cache errors both fall through to the underlying
// catalog; the core stays stateless and the cache is an explicit layer.
type CachedPolicyCatalog struct {
	catalog contracts.PolicyCatalog
	cache   *services.RedisCache
	ttl     time.Duration
}

// NewCachedPolicyCatalog wraps a policy catalog with a redis cache. A nil
// cache disables caching and delegates straight through.
func NewCachedPolicyCatalog(catalog contracts.PolicyCatalog, cache *services.RedisCache, ttl time.Duration) *CachedPolicyCatalog {
	return &CachedPolicyCatalog{catalog: catalog, cache: cache, ttl: ttl}
}

// ListActive returns the active refund policies, served from cache when warm.
func (c *CachedPolicyCatalog) ListActive(ctx context.Context) ([]domain.RefundPolicy, error) {
	if c.cache == nil {
		return c.catalog.ListActive(ctx)
	}
	return services.GetOrSet(c.cache, ctx, policyCacheKey, c.ttl, func() ([]domain.RefundPolicy, error) {
		return c.catalog.ListActive(ctx)
	})
}
