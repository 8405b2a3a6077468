package service

import (
	"context"
	"time"

	"paygw/internal/redis"
)

// ConfirmationScheduler schedules a delayed status re-check for an
// in-flight transaction, as a safety net against missed redirect callbacks.
type ConfirmationScheduler interface {
	ScheduleStatusRecheck(ctx context.Context, task redis.RecheckTask, delay time.Duration) error
}

// RecheckScheduler is a ConfirmationScheduler backed by the Redis recheck
// queue.
type RecheckScheduler struct {
	queue redis.RecheckQueueInterface
}

// NewRecheckScheduler creates a new RecheckScheduler.
func NewRecheckScheduler(queue redis.RecheckQueueInterface) *RecheckScheduler {
	return &RecheckScheduler{queue: queue}
}

// ScheduleStatusRecheck enqueues the re-check to run after delay.
func (s *RecheckScheduler) ScheduleStatusRecheck(ctx context.Context, task redis.RecheckTask, delay time.Duration) error {
	return s.queue.Schedule(ctx, task, time.Now().Add(delay))
}

var _ ConfirmationScheduler = (*RecheckScheduler)(nil)
