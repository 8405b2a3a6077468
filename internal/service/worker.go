package service

import (
	"context"
	"log"
	"time"

	"paygw/internal/redis"
)

// Reconciler is the reconciliation entry point the worker drives.
type Reconciler interface {
	Reconcile(ctx context.Context, req ReconcileRequest) ReconcileResult
}

const (
	recheckLockTTL   = time.Minute
	recheckBatchSize = 50
)

// RecheckWorker polls the recheck queue and reconciles due transactions
// with ischeckstatus set, exactly as a browser redirect would. The per-tid
// lock keeps multiple workers from re-checking the same transaction at
// once; the ledger's uniqueness guard stays the source of truth.
type RecheckWorker struct {
	queue    redis.RecheckQueueInterface
	locks    redis.LockStoreInterface
	engine   Reconciler
	interval time.Duration
}

// NewRecheckWorker creates a new RecheckWorker.
func NewRecheckWorker(queue redis.RecheckQueueInterface, locks redis.LockStoreInterface, engine Reconciler, interval time.Duration) *RecheckWorker {
	return &RecheckWorker{
		queue:    queue,
		locks:    locks,
		engine:   engine,
		interval: interval,
	}
}

// Run polls until the context is cancelled.
func (w *RecheckWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce claims and reconciles all currently due re-checks.
func (w *RecheckWorker) RunOnce(ctx context.Context) {
	tasks, err := w.queue.Due(ctx, time.Now(), recheckBatchSize)
	if err != nil {
		log.Printf("recheck worker: fetching due tasks: %v", err)
		return
	}

	for _, task := range tasks {
		locked, err := w.locks.AcquireTransactionLock(ctx, task.TID, recheckLockTTL)
		if err != nil || !locked {
			// Another worker, or the live redirect, holds this tid.
			continue
		}

		result := w.engine.Reconcile(ctx, ReconcileRequest{
			Component:     task.Component,
			PaymentArea:   task.PaymentArea,
			ItemID:        task.ItemID,
			TID:           task.TID,
			Customer:      task.Customer,
			IsCheckStatus: true,
			UserID:        task.UserID,
		})

		log.Printf("recheck worker: tid=%s success=%t message=%s", task.TID, result.Success, result.Message)

		// The safety net fires once per scheduled check; a declined
		// transaction simply stays pending.
		if err := w.queue.Remove(ctx, task); err != nil {
			log.Printf("recheck worker: removing task %s: %v", task.TID, err)
		}

		_ = w.locks.ReleaseTransactionLock(ctx, task.TID)
	}
}
