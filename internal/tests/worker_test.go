package tests

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"paygw/internal/domain"
	"paygw/internal/redis"
	"paygw/internal/service"
)

type workerFixture struct {
	queue  *MockRecheckQueue
	locks  *MockLockStore
	engine *engineFixture
	worker *service.RecheckWorker
}

func newWorkerFixture() *workerFixture {
	f := &workerFixture{
		queue:  NewMockRecheckQueue(),
		locks:  NewMockLockStore(),
		engine: newEngineFixture(),
	}
	f.worker = service.NewRecheckWorker(f.queue, f.locks, f.engine.engine, time.Second)
	return f
}

func recheckTask(tid string) redis.RecheckTask {
	return redis.RecheckTask{
		TID:         tid,
		Component:   "shop",
		PaymentArea: "cart",
		ItemID:      42,
		UserID:      7,
		Customer:    "client-1",
	}
}

func TestRecheckWorker_ProcessesDueTask(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture()
	ctx := context.Background()

	if err := f.queue.Schedule(ctx, recheckTask("abc123"), time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	f.worker.RunOnce(ctx)

	// The re-check goes through the status-check path, never the
	// direct-payment one.
	if atomic.LoadInt32(&f.engine.provider.CheckCallCount) != 1 {
		t.Errorf("expected 1 status check, got %d", f.engine.provider.CheckCallCount)
	}
	if atomic.LoadInt32(&f.engine.provider.SubmitCallCount) != 0 {
		t.Error("re-check must not submit a payment")
	}

	if f.engine.ledger.GetOrder("abc123").Status != domain.OrderStatusComplete {
		t.Error("expected the pending order to be completed")
	}
	if f.queue.Size() != 0 {
		t.Error("processed task must leave the queue")
	}
	if atomic.LoadInt32(&f.locks.ReleaseCallCount) != 1 {
		t.Error("expected the transaction lock to be released")
	}
}

func TestRecheckWorker_NotDueYet_Skipped(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture()
	ctx := context.Background()

	if err := f.queue.Schedule(ctx, recheckTask("abc123"), time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	f.worker.RunOnce(ctx)

	if atomic.LoadInt32(&f.engine.provider.CheckCallCount) != 0 {
		t.Error("a task that is not due must not be reconciled")
	}
	if f.queue.Size() != 1 {
		t.Error("a task that is not due must stay queued")
	}
}

func TestRecheckWorker_LockedTID_LeftForHolder(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture()
	ctx := context.Background()

	if err := f.queue.Schedule(ctx, recheckTask("abc123"), time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	// Somebody else (the live redirect, or another worker) holds the tid.
	f.locks.Lock("abc123", time.Minute)

	f.worker.RunOnce(ctx)

	if atomic.LoadInt32(&f.engine.provider.CheckCallCount) != 0 {
		t.Error("a locked tid must not be reconciled")
	}
	if f.queue.Size() != 1 {
		t.Error("a locked tid must stay queued for the next pass")
	}
}

func TestRecheckWorker_DeclinedPayment_RemovedOnce(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture()
	f.engine.provider.SetStatus("ERROR", "VISA")
	ctx := context.Background()

	if err := f.queue.Schedule(ctx, recheckTask("abc123"), time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	f.worker.RunOnce(ctx)

	// The safety net fires once; the declined transaction stays a pending
	// order but is not re-checked again.
	if f.queue.Size() != 0 {
		t.Error("the task leaves the queue even when the payment is declined")
	}
	if f.engine.ledger.GetOrder("abc123").Status != domain.OrderStatusPending {
		t.Error("a declined transaction stays pending")
	}
	if f.engine.ledger.CountPaymentRecords() != 0 {
		t.Error("a declined transaction must not produce a payment record")
	}
}

func TestRecheckWorker_AlreadyPaid_ShortCircuits(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture()
	ctx := context.Background()

	// The browser redirect already completed this transaction.
	first := f.engine.engine.Reconcile(ctx, reconcileRequest(false))
	if !first.Success {
		t.Fatalf("setup reconcile failed: %+v", first)
	}

	if err := f.queue.Schedule(ctx, recheckTask("abc123"), time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	f.worker.RunOnce(ctx)

	if f.engine.ledger.CountPaymentRecords() != 1 {
		t.Errorf("re-check must not duplicate the payment, got %d records", f.engine.ledger.CountPaymentRecords())
	}
	if atomic.LoadInt32(&f.engine.delivery.DeliverCallCount) != 1 {
		t.Error("re-check must not duplicate delivery")
	}
	if f.queue.Size() != 0 {
		t.Error("the satisfied re-check leaves the queue")
	}
}
