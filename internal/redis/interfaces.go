package redis

import (
	"context"
	"time"
)

// RecheckQueueInterface defines the interface for scheduled status re-checks.
type RecheckQueueInterface interface {
	Schedule(ctx context.Context, task RecheckTask, due time.Time) error
	Due(ctx context.Context, now time.Time, limit int64) ([]RecheckTask, error)
	Remove(ctx context.Context, task RecheckTask) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireTransactionLock(ctx context.Context, tid string, ttl time.Duration) (bool, error)
	ReleaseTransactionLock(ctx context.Context, tid string) error
}

// Ensure concrete types implement interfaces.
var (
	_ RecheckQueueInterface = (*RecheckQueue)(nil)
	_ LockStoreInterface    = (*LockStore)(nil)
)
