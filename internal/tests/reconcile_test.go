package tests

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"paygw/internal/domain"
	"paygw/internal/service"
)

// newEngineFixture wires a reconciliation engine with all mocks and a
// seeded payable + open order for tid "abc123".
type engineFixture struct {
	ledger   *MockOrderLedger
	payables *MockPayableSource
	provider *MockProvider
	delivery *MockDeliveryService
	events   *RecordingEventSink
	engine   *service.ReconciliationEngine
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		ledger:   NewMockOrderLedger(),
		payables: NewMockPayableSource(),
		provider: NewMockProvider(),
		delivery: NewMockDeliveryService(),
		events:   NewRecordingEventSink(),
	}
	f.engine = service.NewReconciliationEngine(
		f.ledger, f.payables, f.provider, f.delivery, f.events, "mpay24", 0,
	)

	f.payables.AddPayable(&domain.Payable{
		Component:   "shop",
		PaymentArea: "cart",
		ItemID:      42,
		Amount:      10.00,
		Currency:    "EUR",
		AccountID:   "acct-1",
		SuccessURL:  "https://shop.example/checkout/done?success=1",
	})
	f.ledger.AddOrder(&domain.OpenOrder{
		TID:         "abc123",
		Component:   "shop",
		PaymentArea: "cart",
		ItemID:      42,
		UserID:      7,
		Price:       10.00,
		Status:      domain.OrderStatusPending,
		TimeCreated: time.Now(),
	})

	return f
}

func reconcileRequest(isCheckStatus bool) service.ReconcileRequest {
	return service.ReconcileRequest{
		Component:     "shop",
		PaymentArea:   "cart",
		ItemID:        42,
		TID:           "abc123",
		Token:         "T1",
		Customer:      "client-1",
		IsCheckStatus: isCheckStatus,
		UserID:        7,
	}
}

// ──────────────────────────────────────────────
// 1. END-TO-END APPROVAL
// ──────────────────────────────────────────────

func TestReconcile_DirectPayment_Approved_CompletesOrder(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()

	result := f.engine.Reconcile(context.Background(), reconcileRequest(false))

	if !result.Success {
		t.Fatalf("expected success, got: %+v", result)
	}
	if result.URL != "https://shop.example/checkout/done?success=1" {
		t.Errorf("expected success URL, got %s", result.URL)
	}

	order := f.ledger.GetOrder("abc123")
	if order.Status != domain.OrderStatusComplete {
		t.Errorf("expected order status COMPLETE, got %d", order.Status)
	}

	record := f.ledger.GetPaymentRecord("abc123")
	if record == nil {
		t.Fatal("expected a payment record for abc123")
	}
	if record.ProviderOrderID != "abc123" {
		t.Errorf("expected provider order id abc123, got %s", record.ProviderOrderID)
	}

	if f.delivery.DeliverCallCount != 1 {
		t.Errorf("expected 1 delivery invocation, got %d", f.delivery.DeliverCallCount)
	}

	if f.events.CountByType(service.EventPaymentCompleted) != 1 {
		t.Error("expected payment_completed event")
	}
	if f.events.CountByType(service.EventPaymentSuccessful) != 1 {
		t.Error("expected payment_successful event")
	}

	if f.provider.SubmitCallCount != 1 || f.provider.CheckCallCount != 0 {
		t.Errorf("expected direct-payment path only, got submit=%d check=%d",
			f.provider.SubmitCallCount, f.provider.CheckCallCount)
	}
}

func TestReconcile_CheckStatus_UsesStatusParam(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	// The check-status path reads STATUS from the parameter bag, not the
	// top-level status accessor.
	f.provider.CheckResult.Status = "IGNORED"

	result := f.engine.Reconcile(context.Background(), reconcileRequest(true))

	if !result.Success {
		t.Fatalf("expected success via STATUS param, got: %+v", result)
	}
	if f.provider.CheckCallCount != 1 || f.provider.SubmitCallCount != 0 {
		t.Errorf("expected check-status path only, got submit=%d check=%d",
			f.provider.SubmitCallCount, f.provider.CheckCallCount)
	}
}

// ──────────────────────────────────────────────
// 2. STATUS CLASSIFICATION
// ──────────────────────────────────────────────

func TestReconcile_StatusClassification(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		status      string
		wantSuccess bool
	}{
		{name: "OK approved", status: "OK", wantSuccess: true},
		{name: "BILLED approved", status: "BILLED", wantSuccess: true},
		{name: "ERROR declined", status: "ERROR", wantSuccess: false},
		{name: "RESERVED declined", status: "RESERVED", wantSuccess: false},
		{name: "empty declined", status: "", wantSuccess: false},
		{name: "lowercase ok declined", status: "ok", wantSuccess: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			for _, isCheckStatus := range []bool{false, true} {
				f := newEngineFixture()
				f.provider.SetStatus(tc.status, "VISA")

				result := f.engine.Reconcile(context.Background(), reconcileRequest(isCheckStatus))

				if result.Success != tc.wantSuccess {
					t.Errorf("ischeckstatus=%t: expected success=%t, got %+v",
						isCheckStatus, tc.wantSuccess, result)
				}
				if !tc.wantSuccess && result.Message != service.MsgPaymentError {
					t.Errorf("expected payment error message, got %q", result.Message)
				}
			}
		})
	}
}

// ──────────────────────────────────────────────
// 3. IDEMPOTENCE AND DUPLICATE GUARDS
// ──────────────────────────────────────────────

func TestReconcile_SecondCall_ShortCircuits(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	ctx := context.Background()

	first := f.engine.Reconcile(ctx, reconcileRequest(false))
	if !first.Success {
		t.Fatalf("first call should succeed: %+v", first)
	}

	second := f.engine.Reconcile(ctx, reconcileRequest(false))
	if !second.Success {
		t.Fatalf("second call should report idempotent success: %+v", second)
	}
	if second.Message != service.MsgPaymentAlreadyExists {
		t.Errorf("expected already-exists message, got %q", second.Message)
	}

	if f.ledger.CountPaymentRecords() != 1 {
		t.Errorf("expected exactly 1 payment record, got %d", f.ledger.CountPaymentRecords())
	}
	if f.delivery.DeliverCallCount != 1 {
		t.Errorf("expected exactly 1 delivery, got %d", f.delivery.DeliverCallCount)
	}
	// The short-circuit must not query the provider again.
	if f.provider.SubmitCallCount != 1 {
		t.Errorf("expected 1 provider call, got %d", f.provider.SubmitCallCount)
	}
}

func TestReconcile_ExistingBillingPayment_NoProviderCall(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.ledger.AddBillingPayment(&domain.BillingPayment{
		ID:        "billing-0",
		Component: "shop",
		ItemID:    42,
		UserID:    7,
	})

	result := f.engine.Reconcile(context.Background(), reconcileRequest(false))

	if !result.Success || result.Message != service.MsgPaymentAlreadyExists {
		t.Fatalf("expected already-exists success, got: %+v", result)
	}
	if f.provider.SubmitCallCount != 0 || f.provider.CheckCallCount != 0 {
		t.Error("duplicate short-circuit must not call the provider")
	}
	if f.delivery.DeliverCallCount != 0 {
		t.Error("duplicate short-circuit must not trigger delivery")
	}
}

func TestReconcile_MissingOpenOrder_InternalError(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	req := reconcileRequest(false)
	req.TID = "never-opened"

	result := f.engine.Reconcile(context.Background(), req)

	if result.Success {
		t.Fatalf("expected failure for unknown tid, got: %+v", result)
	}
	if result.Message != service.MsgInternalError {
		t.Errorf("expected internal error message, got %q", result.Message)
	}
	if f.ledger.CountPaymentRecords() != 0 {
		t.Error("no payment record may be created for an unknown tid")
	}
}

func TestReconcile_ConcurrentCalls_OnePaymentRecord(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	ctx := context.Background()

	const callers = 8
	results := make([]service.ReconcileResult, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Mix of redirect callbacks and scheduled rechecks.
			results[i] = f.engine.Reconcile(ctx, reconcileRequest(i%2 == 0))
		}(i)
	}
	wg.Wait()

	if f.ledger.CountPaymentRecords() != 1 {
		t.Fatalf("expected exactly 1 payment record, got %d", f.ledger.CountPaymentRecords())
	}
	if f.delivery.DeliverCallCount != 1 {
		t.Errorf("expected exactly 1 delivery, got %d", f.delivery.DeliverCallCount)
	}

	fresh := 0
	for _, r := range results {
		if r.Success && r.Message == service.MsgPaymentSuccessful {
			fresh++
		}
	}
	if fresh != 1 {
		t.Errorf("expected exactly 1 fresh success, got %d", fresh)
	}
}

// ──────────────────────────────────────────────
// 4. FAILURE PATHS
// ──────────────────────────────────────────────

func TestReconcile_ProviderUnreachable_NoMutation(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.provider.SetUnreachable()

	result := f.engine.Reconcile(context.Background(), reconcileRequest(true))

	if result.Success {
		t.Fatalf("expected failure, got: %+v", result)
	}
	if result.Message != service.MsgCannotFetchOrderDetails {
		t.Errorf("expected cannot-fetch message, got %q", result.Message)
	}

	if f.ledger.GetOrder("abc123").Status != domain.OrderStatusPending {
		t.Error("order must stay pending when the provider is unreachable")
	}
	if f.ledger.CountPaymentRecords() != 0 {
		t.Error("no ledger mutation allowed when the provider is unreachable")
	}
	if f.events.CountByType(service.EventPaymentError) != 1 {
		t.Error("expected a payment_error event")
	}
}

func TestReconcile_Declined_EmitsPaymentError(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.provider.SetStatus("ERROR", "VISA")

	result := f.engine.Reconcile(context.Background(), reconcileRequest(false))

	if result.Success {
		t.Fatalf("expected failure, got: %+v", result)
	}

	event := f.events.LastByType(service.EventPaymentError)
	if event == nil {
		t.Fatal("expected payment_error event")
	}
	if event.OrderID != "abc123" || event.UserID != 7 {
		t.Errorf("event should carry transaction context, got %+v", event)
	}
}

func TestReconcile_FailureURL_TogglesSuccessFlag(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.provider.SetStatus("ERROR", "VISA")

	result := f.engine.Reconcile(context.Background(), reconcileRequest(false))

	if !strings.Contains(result.URL, "success=0") {
		t.Errorf("failure URL should carry success=0, got %s", result.URL)
	}
	if strings.Contains(result.URL, "success=1") {
		t.Errorf("failure URL must not keep success=1, got %s", result.URL)
	}
}

func TestReconcile_DeliveryFailure_NonFatal(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.delivery.ShouldFail = true

	result := f.engine.Reconcile(context.Background(), reconcileRequest(false))

	if !result.Success {
		t.Fatalf("delivery failure must not fail the payment, got: %+v", result)
	}
	if f.ledger.GetPaymentRecord("abc123") == nil {
		t.Error("payment record must survive a delivery failure")
	}
	if f.ledger.GetOrder("abc123").Status != domain.OrderStatusComplete {
		t.Error("order must stay complete after a delivery failure")
	}
	if f.events.CountByType(service.EventDeliveryError) != 1 {
		t.Error("expected a delivery_error event")
	}
}

func TestReconcile_DeliveryPanic_Downgraded(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.delivery.PanicOnCall = true

	result := f.engine.Reconcile(context.Background(), reconcileRequest(false))

	// The charge stood; the panic is downgraded to a structured failure
	// result rather than escaping to the caller.
	if result.Success {
		t.Fatalf("expected downgraded failure result, got: %+v", result)
	}
	if result.Message != service.MsgInternalError {
		t.Errorf("expected internal error message, got %q", result.Message)
	}
}

// ──────────────────────────────────────────────
// 5. BRAND NORMALIZATION
// ──────────────────────────────────────────────

func TestReconcile_BrandNormalization(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		raw  string
		want string
	}{
		{raw: "VISA", want: "VC"},
		{raw: "MASTERCARD", want: "MC"},
		{raw: "EPS", want: "EP"},
		{raw: "DINERS", want: domain.UnknownBrand},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.raw, func(t *testing.T) {
			t.Parallel()

			f := newEngineFixture()
			f.provider.SetStatus("OK", tc.raw)

			result := f.engine.Reconcile(context.Background(), reconcileRequest(false))
			if !result.Success {
				t.Fatalf("expected success, got: %+v", result)
			}

			record := f.ledger.GetPaymentRecord("abc123")
			if record.Brand != tc.want {
				t.Errorf("expected brand %q, got %q", tc.want, record.Brand)
			}
			if record.BrandRaw != tc.raw {
				t.Errorf("expected raw brand %q preserved, got %q", tc.raw, record.BrandRaw)
			}
		})
	}
}
