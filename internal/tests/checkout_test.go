package tests

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"paygw/internal/domain"
	"paygw/internal/repository"
	"paygw/internal/service"
)

type checkoutFixture struct {
	ledger    *MockOrderLedger
	payables  *MockPayableSource
	provider  *MockProvider
	events    *RecordingEventSink
	scheduler *MockScheduler
	checkout  *service.CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		ledger:    NewMockOrderLedger(),
		payables:  NewMockPayableSource(),
		provider:  NewMockProvider(),
		events:    NewRecordingEventSink(),
		scheduler: NewMockScheduler(),
	}
	f.checkout = service.NewCheckoutService(
		f.ledger, f.payables, f.provider, f.events, f.scheduler,
		service.CheckoutSettings{
			ClientID:     "client-1",
			BrandName:    "Course Shop",
			Environment:  "sandbox",
			Language:     "en",
			Surcharge:    0,
			RecheckDelay: 5 * time.Minute,
			BaseURL:      "https://shop.example",
		},
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

	return f
}

// ──────────────────────────────────────────────
// 1. INITIATE CHECKOUT
// ──────────────────────────────────────────────

func TestInitiateCheckout_OpensOrderAndSchedulesRecheck(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture()

	config, err := f.checkout.InitiateCheckout(context.Background(), "shop", "cart", 42, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.ClientID != "client-1" || config.BrandName != "Course Shop" {
		t.Errorf("config should carry the deployment settings, got %+v", config)
	}
	if config.Cost != 10.00 || config.Currency != "EUR" {
		t.Errorf("expected cost 10.00 EUR, got %v %s", config.Cost, config.Currency)
	}
	if config.Token != "tok-1" || config.TokenizerLocation == "" {
		t.Errorf("expected tokenizer details in config, got %+v", config)
	}
	if config.TID == "" {
		t.Fatal("expected a transaction id in the config")
	}

	order := f.ledger.GetOrder(config.TID)
	if order == nil {
		t.Fatal("expected an open order for the new tid")
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("new order must be pending, got %d", order.Status)
	}
	if order.Price != 10.00 || order.UserID != 7 {
		t.Errorf("order should carry cost and user, got %+v", order)
	}

	tasks := f.scheduler.ScheduledTasks()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 scheduled re-check, got %d", len(tasks))
	}
	if tasks[0].TID != config.TID || tasks[0].Customer != "client-1" {
		t.Errorf("re-check task should carry tid and customer, got %+v", tasks[0])
	}

	if f.events.CountByType(service.EventPaymentAdded) != 1 {
		t.Error("expected a payment_added event")
	}
}

func TestInitiateCheckout_AppliesSurcharge(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture()
	withSurcharge := service.NewCheckoutService(
		f.ledger, f.payables, f.provider, f.events, f.scheduler,
		service.CheckoutSettings{ClientID: "client-1", Surcharge: 2.5, RecheckDelay: time.Minute},
	)

	config, err := withSurcharge.InitiateCheckout(context.Background(), "shop", "cart", 42, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Cost != 10.25 {
		t.Errorf("expected surcharged cost 10.25, got %v", config.Cost)
	}
}

func TestInitiateCheckout_Validation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		component   string
		paymentArea string
		itemID      int
		userID      int
		wantErr     error
	}{
		{name: "empty component", component: "", paymentArea: "cart", itemID: 42, userID: 7, wantErr: service.ErrInvalidComponent},
		{name: "empty payment area", component: "shop", paymentArea: "", itemID: 42, userID: 7, wantErr: service.ErrInvalidPaymentArea},
		{name: "zero item", component: "shop", paymentArea: "cart", itemID: 0, userID: 7, wantErr: service.ErrInvalidItemID},
		{name: "negative item", component: "shop", paymentArea: "cart", itemID: -1, userID: 7, wantErr: service.ErrInvalidItemID},
		{name: "zero user", component: "shop", paymentArea: "cart", itemID: 42, userID: 0, wantErr: service.ErrInvalidUserID},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newCheckoutFixture()
			_, err := f.checkout.InitiateCheckout(context.Background(), tc.component, tc.paymentArea, tc.itemID, tc.userID)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if atomic.LoadInt32(&f.ledger.OpenOrderCallCount) != 0 {
				t.Error("validation failure must not open an order")
			}
		})
	}
}

func TestInitiateCheckout_TokenizerUnavailable(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture()
	f.provider.TokenizerResult = nil
	f.provider.TokenizerError = errors.New("connection refused")

	_, err := f.checkout.InitiateCheckout(context.Background(), "shop", "cart", 42, 7)
	if !errors.Is(err, service.ErrTokenizerUnavailable) {
		t.Errorf("expected tokenizer-unavailable error, got %v", err)
	}
	if atomic.LoadInt32(&f.ledger.OpenOrderCallCount) != 0 {
		t.Error("no order may be opened when the tokenizer is unavailable")
	}
}

func TestInitiateCheckout_DuplicateOrder_Propagated(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture()
	f.ledger.OpenOrderError = repository.ErrDuplicate

	_, err := f.checkout.InitiateCheckout(context.Background(), "shop", "cart", 42, 7)
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("expected duplicate error, got %v", err)
	}
	if len(f.scheduler.ScheduledTasks()) != 0 {
		t.Error("no re-check may be scheduled when the order is not opened")
	}
}

// ──────────────────────────────────────────────
// 2. TRANSACTION IDS
// ──────────────────────────────────────────────

func TestNewTID_Format(t *testing.T) {
	t.Parallel()

	tid := service.NewTID()

	// 16 hex chars followed by a unix timestamp (10 digits until 2286).
	matched, err := regexp.MatchString(`^[0-9a-f]{16}[0-9]{10}$`, tid)
	if err != nil {
		t.Fatalf("bad pattern: %v", err)
	}
	if !matched {
		t.Errorf("unexpected tid format: %s", tid)
	}
}

func TestNewTID_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tid := service.NewTID()
		if seen[tid] {
			t.Fatalf("duplicate tid generated: %s", tid)
		}
		seen[tid] = true
	}
}

// ──────────────────────────────────────────────
// 3. PAYMENT PAGE
// ──────────────────────────────────────────────

func TestPaymentPageURL_CallbacksPointToLanding(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture()

	pageURL, err := f.checkout.PaymentPageURL(context.Background(), "shop", "cart", 42, "abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pageURL != "https://provider.example/pay" {
		t.Errorf("expected the provider page URL, got %s", pageURL)
	}

	req := f.provider.LastPageRequest
	if req.TID != "abc123" || req.Price != 10.00 {
		t.Errorf("page request should carry tid and price, got %+v", req)
	}
	if req.SuccessURL != req.ErrorURL || req.ErrorURL != req.ConfirmationURL {
		t.Error("all three callbacks must point to the same landing URL")
	}
	if !strings.HasPrefix(req.SuccessURL, "https://shop.example/v1/checkout/landing?") {
		t.Errorf("landing URL should live under the local base URL, got %s", req.SuccessURL)
	}
	for _, want := range []string{"ischeckstatus=true", "tid=abc123", "component=shop", "itemid=42", "customer=client-1"} {
		if !strings.Contains(req.SuccessURL, want) {
			t.Errorf("landing URL missing %q: %s", want, req.SuccessURL)
		}
	}
}

func TestPaymentPageURL_EmptyTID(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture()

	_, err := f.checkout.PaymentPageURL(context.Background(), "shop", "cart", 42, "")
	if !errors.Is(err, service.ErrInvalidTID) {
		t.Errorf("expected invalid-tid error, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 4. COST ROUNDING
// ──────────────────────────────────────────────

func TestRoundedCost(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		amount    float64
		surcharge float64
		want      float64
	}{
		{name: "no surcharge", amount: 10.00, surcharge: 0, want: 10.00},
		{name: "whole percent", amount: 10.00, surcharge: 10, want: 11.00},
		{name: "fractional result rounds", amount: 9.99, surcharge: 2.5, want: 10.24},
		{name: "half cent rounds up", amount: 10.00, surcharge: 0.05, want: 10.01},
		{name: "zero amount", amount: 0, surcharge: 12, want: 0},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := service.RoundedCost(tc.amount, tc.surcharge)
			if got != tc.want {
				t.Errorf("RoundedCost(%v, %v) = %v, want %v", tc.amount, tc.surcharge, got, tc.want)
			}
		})
	}
}
