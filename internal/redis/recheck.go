package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const recheckQueueKey = "recheck:due"

// RecheckTask is a scheduled status re-check for an in-flight transaction.
// It carries everything the reconciliation entry point needs, so the worker
// does not depend on ambient session state.
type RecheckTask struct {
	TID         string `json:"tid"`
	Component   string `json:"component"`
	PaymentArea string `json:"paymentarea"`
	ItemID      int    `json:"itemid"`
	UserID      int    `json:"userid"`
	Customer    string `json:"customer"`
}

// RecheckQueue stores scheduled status re-checks in a Redis sorted set
// scored by due time. It is the persistence behind the confirmation
// scheduler safety net.
type RecheckQueue struct {
	client *redis.Client
}

// NewRecheckQueue creates a new RecheckQueue.
func NewRecheckQueue(client *redis.Client) *RecheckQueue {
	return &RecheckQueue{client: client}
}

// Schedule enqueues a re-check to run at the given time.
func (q *RecheckQueue) Schedule(ctx context.Context, task RecheckTask, due time.Time) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}

	return q.client.ZAdd(ctx, recheckQueueKey, redis.Z{
		Score:  float64(due.Unix()),
		Member: data,
	}).Err()
}

// Due returns up to limit tasks whose due time has passed.
func (q *RecheckQueue) Due(ctx context.Context, now time.Time, limit int64) ([]RecheckTask, error) {
	members, err := q.client.ZRangeByScore(ctx, recheckQueueKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, err
	}

	tasks := make([]RecheckTask, 0, len(members))
	for _, member := range members {
		var task RecheckTask
		if err := json.Unmarshal([]byte(member), &task); err != nil {
			// Drop unparseable entries so they don't wedge the queue.
			_ = q.client.ZRem(ctx, recheckQueueKey, member)
			continue
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

// Remove deletes a task from the queue.
func (q *RecheckQueue) Remove(ctx context.Context, task RecheckTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}

	return q.client.ZRem(ctx, recheckQueueKey, data).Err()
}
