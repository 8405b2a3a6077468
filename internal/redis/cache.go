package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"paygw/internal/domain"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	// PayableCacheTTL keeps item prices briefly cached; prices change
	// rarely but must not survive a repricing for long.
	PayableCacheTTL = 60 * time.Second
)

const payableCachePrefix = "cache:payable:"

func payableCacheKey(component, paymentArea string, itemID int) string {
	return fmt.Sprintf("%s%s:%s:%d", payableCachePrefix, component, paymentArea, itemID)
}

// GetPayable retrieves a payable from cache. Returns nil on a miss.
func (s *CacheStore) GetPayable(ctx context.Context, component, paymentArea string, itemID int) (*domain.Payable, error) {
	data, err := s.client.Get(ctx, payableCacheKey(component, paymentArea, itemID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var payable domain.Payable
	if err := json.Unmarshal(data, &payable); err != nil {
		return nil, err
	}
	return &payable, nil
}

// SetPayable stores a payable in cache.
func (s *CacheStore) SetPayable(ctx context.Context, payable *domain.Payable) error {
	data, err := json.Marshal(payable)
	if err != nil {
		return err
	}
	key := payableCacheKey(payable.Component, payable.PaymentArea, payable.ItemID)
	return s.client.Set(ctx, key, data, PayableCacheTTL).Err()
}

// InvalidatePayable removes a payable from cache.
func (s *CacheStore) InvalidatePayable(ctx context.Context, component, paymentArea string, itemID int) error {
	return s.client.Del(ctx, payableCacheKey(component, paymentArea, itemID)).Err()
}
