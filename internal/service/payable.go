package service

import (
	"context"
	"math"

	"paygw/internal/domain"
	"paygw/internal/repository"
)

// PayableSource resolves the payment context for a purchasable item.
type PayableSource interface {
	Payable(ctx context.Context, component, paymentArea string, itemID int) (*domain.Payable, error)
}

// PayableCache is the caching surface the resolver needs from Redis.
type PayableCache interface {
	GetPayable(ctx context.Context, component, paymentArea string, itemID int) (*domain.Payable, error)
	SetPayable(ctx context.Context, payable *domain.Payable) error
}

// CachedPayableResolver resolves payables from the catalog with a Redis
// read-through cache in front.
type CachedPayableResolver struct {
	repo  repository.PayableRepository
	cache PayableCache
}

// NewCachedPayableResolver creates a new CachedPayableResolver.
// The cache may be nil, in which case every lookup hits the catalog.
func NewCachedPayableResolver(repo repository.PayableRepository, cache PayableCache) *CachedPayableResolver {
	return &CachedPayableResolver{repo: repo, cache: cache}
}

// Payable resolves the payable for an item, consulting the cache first.
// Cache errors fall through to the catalog.
func (r *CachedPayableResolver) Payable(ctx context.Context, component, paymentArea string, itemID int) (*domain.Payable, error) {
	if r.cache != nil {
		if cached, err := r.cache.GetPayable(ctx, component, paymentArea, itemID); err == nil && cached != nil {
			return cached, nil
		}
	}

	payable, err := r.repo.Get(ctx, component, paymentArea, itemID)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		_ = r.cache.SetPayable(ctx, payable)
	}

	return payable, nil
}

var _ PayableSource = (*CachedPayableResolver)(nil)

// RoundedCost applies the gateway surcharge percentage to an amount and
// rounds to two decimal places.
func RoundedCost(amount, surchargePercent float64) float64 {
	cost := amount * (1 + surchargePercent/100)
	return math.Round(cost*100) / 100
}
