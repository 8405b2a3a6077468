package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireTransactionLock attempts to acquire a lock for the given
// transaction id. Returns true if the lock was acquired, false if already
// held. The lock only reduces wasted work when the browser redirect and the
// recheck worker race on the same tid; correctness comes from the unique
// constraint on payment records.
func (s *LockStore) AcquireTransactionLock(ctx context.Context, tid string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:tid:%s", tid)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseTransactionLock releases the lock for the given transaction id.
func (s *LockStore) ReleaseTransactionLock(ctx context.Context, tid string) error {
	key := fmt.Sprintf("lock:tid:%s", tid)

	return s.client.Del(ctx, key).Err()
}
