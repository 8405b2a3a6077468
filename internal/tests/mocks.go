package tests

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"paygw/internal/domain"
	"paygw/internal/gateway"
	"paygw/internal/redis"
	"paygw/internal/repository"
	"paygw/internal/service"
)

// ──────────────────────────────────────────────
// MOCK ORDER LEDGER
// ──────────────────────────────────────────────

// MockOrderLedger is an in-memory implementation of service.OrderLedger.
// CompletePayment emulates the unique constraint on provider_order_id.
type MockOrderLedger struct {
	mu       sync.Mutex
	orders   map[string]*domain.OpenOrder
	payments map[string]*domain.PaymentRecord
	billing  []*domain.BillingPayment

	// Counters for verification
	OpenOrderCallCount       int32
	CompletePaymentCallCount int32

	// Error injection
	OpenOrderError       error
	FindOrderError       error
	FindBillingError     error
	CompletePaymentError error
}

// NewMockOrderLedger creates a new mock order ledger.
func NewMockOrderLedger() *MockOrderLedger {
	return &MockOrderLedger{
		orders:   make(map[string]*domain.OpenOrder),
		payments: make(map[string]*domain.PaymentRecord),
	}
}

// AddOrder seeds an open order.
func (m *MockOrderLedger) AddOrder(order *domain.OpenOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.TID] = order
}

// AddBillingPayment seeds a completed billing payment.
func (m *MockOrderLedger) AddBillingPayment(payment *domain.BillingPayment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.billing = append(m.billing, payment)
}

func (m *MockOrderLedger) OpenOrder(ctx context.Context, order *domain.OpenOrder) error {
	atomic.AddInt32(&m.OpenOrderCallCount, 1)
	if m.OpenOrderError != nil {
		return m.OpenOrderError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.TID]; ok {
		return repository.ErrDuplicate
	}
	copy := *order
	m.orders[order.TID] = &copy
	return nil
}

func (m *MockOrderLedger) FindOrder(ctx context.Context, tid string) (*domain.OpenOrder, error) {
	if m.FindOrderError != nil {
		return nil, m.FindOrderError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[tid]
	if !ok {
		return nil, nil
	}
	copy := *order
	return &copy, nil
}

func (m *MockOrderLedger) FindPaymentByProviderOrderID(ctx context.Context, tid string) (*domain.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.payments[tid]
	if !ok {
		return nil, nil
	}
	copy := *record
	return &copy, nil
}

func (m *MockOrderLedger) FindBillingPayment(ctx context.Context, component string, itemID, userID int) (*domain.BillingPayment, error) {
	if m.FindBillingError != nil {
		return nil, m.FindBillingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.billing {
		if p.Component == component && p.ItemID == itemID && p.UserID == userID {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockOrderLedger) CompletePayment(ctx context.Context, params service.CompletePaymentParams) (string, error) {
	atomic.AddInt32(&m.CompletePaymentCallCount, 1)
	if m.CompletePaymentError != nil {
		return "", m.CompletePaymentError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// Uniqueness guard on provider_order_id, like the postgres index.
	if _, ok := m.payments[params.TID]; ok {
		return "", repository.ErrDuplicate
	}

	order, ok := m.orders[params.TID]
	if !ok {
		return "", repository.ErrNotFound
	}

	paymentID := fmt.Sprintf("billing-%d", len(m.billing)+1)
	m.billing = append(m.billing, &domain.BillingPayment{
		ID:          paymentID,
		AccountID:   params.AccountID,
		Component:   params.Component,
		PaymentArea: params.PaymentArea,
		ItemID:      params.ItemID,
		UserID:      params.UserID,
		Amount:      params.Amount,
		Currency:    params.Currency,
		Gateway:     params.Gateway,
		TimeCreated: time.Now(),
	})
	m.payments[params.TID] = &domain.PaymentRecord{
		ID:              fmt.Sprintf("record-%d", len(m.payments)+1),
		PaymentID:       paymentID,
		ProviderOrderID: params.TID,
		Brand:           domain.NormalizeBrand(params.BrandRaw),
		BrandRaw:        params.BrandRaw,
	}
	order.Status = domain.OrderStatusComplete
	order.TimeModified = time.Now()

	return paymentID, nil
}

// GetOrder returns the order for test assertions.
func (m *MockOrderLedger) GetOrder(tid string) *domain.OpenOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[tid]
}

// GetPaymentRecord returns the payment record for a tid.
func (m *MockOrderLedger) GetPaymentRecord(tid string) *domain.PaymentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[tid]
}

// CountPaymentRecords returns the number of payment records.
func (m *MockOrderLedger) CountPaymentRecords() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

// CountBillingPayments returns the number of billing ledger rows.
func (m *MockOrderLedger) CountBillingPayments() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.billing)
}

// ──────────────────────────────────────────────
// MOCK PAYABLE SOURCE
// ──────────────────────────────────────────────

// MockPayableSource is a mock implementation of service.PayableSource.
type MockPayableSource struct {
	mu       sync.RWMutex
	payables map[string]*domain.Payable

	// Error injection
	PayableError error
}

// NewMockPayableSource creates a new mock payable source.
func NewMockPayableSource() *MockPayableSource {
	return &MockPayableSource{
		payables: make(map[string]*domain.Payable),
	}
}

func payableKey(component, paymentArea string, itemID int) string {
	return fmt.Sprintf("%s:%s:%d", component, paymentArea, itemID)
}

// AddPayable seeds a payable.
func (m *MockPayableSource) AddPayable(payable *domain.Payable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payables[payableKey(payable.Component, payable.PaymentArea, payable.ItemID)] = payable
}

func (m *MockPayableSource) Payable(ctx context.Context, component, paymentArea string, itemID int) (*domain.Payable, error) {
	if m.PayableError != nil {
		return nil, m.PayableError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	payable, ok := m.payables[payableKey(component, paymentArea, itemID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payable
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK GATEWAY PROVIDER
// ──────────────────────────────────────────────

// MockProvider is a configurable mock payment provider.
type MockProvider struct {
	mu sync.Mutex

	// Results returned by the two query paths. A nil result with a nil
	// error models an unreachable provider.
	SubmitResult *gateway.ProviderResult
	SubmitError  error
	CheckResult  *gateway.ProviderResult
	CheckError   error

	TokenizerResult *gateway.Tokenizer
	TokenizerError  error

	PageURL   string
	PageError error

	// Captured inputs
	LastPaymentRequest gateway.PaymentRequest
	LastPageRequest    gateway.PaymentPageRequest

	// Counters
	SubmitCallCount int32
	CheckCallCount  int32
}

// NewMockProvider creates a mock provider that approves everything with a
// VISA brand.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		SubmitResult: &gateway.ProviderResult{
			Status: "OK",
			Brand:  "VISA",
			Params: map[string]string{"STATUS": "OK", "BRAND": "VISA"},
		},
		CheckResult: &gateway.ProviderResult{
			Status: "BILLED",
			Brand:  "VISA",
			Params: map[string]string{"STATUS": "BILLED", "BRAND": "VISA"},
		},
		TokenizerResult: &gateway.Tokenizer{
			Token:    "tok-1",
			Location: "https://provider.example/tokenizer/tok-1",
		},
		PageURL: "https://provider.example/pay",
	}
}

func (m *MockProvider) SubmitTokenPayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.ProviderResult, error) {
	atomic.AddInt32(&m.SubmitCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastPaymentRequest = req
	return m.SubmitResult, m.SubmitError
}

func (m *MockProvider) CheckStatusByTID(ctx context.Context, tid string) (*gateway.ProviderResult, error) {
	atomic.AddInt32(&m.CheckCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CheckResult, m.CheckError
}

func (m *MockProvider) CreateTokenizer(ctx context.Context) (*gateway.Tokenizer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TokenizerResult, m.TokenizerError
}

func (m *MockProvider) PaymentPageURL(ctx context.Context, req gateway.PaymentPageRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastPageRequest = req
	return m.PageURL, m.PageError
}

// SetStatus configures both query paths to report the given status/brand.
func (m *MockProvider) SetStatus(status, brand string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitResult = &gateway.ProviderResult{
		Status: status,
		Brand:  brand,
		Params: map[string]string{"STATUS": status, "BRAND": brand},
	}
	m.CheckResult = &gateway.ProviderResult{
		Status: status,
		Brand:  brand,
		Params: map[string]string{"STATUS": status, "BRAND": brand},
	}
}

// SetUnreachable makes both query paths return no result.
func (m *MockProvider) SetUnreachable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitResult = nil
	m.CheckResult = nil
}

// ──────────────────────────────────────────────
// MOCK DELIVERY SERVICE
// ──────────────────────────────────────────────

// MockDeliveryService is a mock implementation of service.DeliveryService.
type MockDeliveryService struct {
	mu sync.Mutex

	// Control behavior
	ShouldFail  bool
	FailError   error
	PanicOnCall bool

	// Counters
	DeliverCallCount int32
}

// NewMockDeliveryService creates a new mock delivery service.
func NewMockDeliveryService() *MockDeliveryService {
	return &MockDeliveryService{}
}

func (m *MockDeliveryService) Deliver(ctx context.Context, component, paymentArea string, itemID int, paymentID string, userID int) (bool, error) {
	atomic.AddInt32(&m.DeliverCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PanicOnCall {
		panic("delivery collaborator blew up")
	}
	if m.FailError != nil {
		return false, m.FailError
	}
	if m.ShouldFail {
		return false, nil
	}
	return true, nil
}

// ──────────────────────────────────────────────
// RECORDING EVENT SINK
// ──────────────────────────────────────────────

// RecordingEventSink collects published events for assertions.
type RecordingEventSink struct {
	mu     sync.Mutex
	events []service.Event
}

// NewRecordingEventSink creates a new RecordingEventSink.
func NewRecordingEventSink() *RecordingEventSink {
	return &RecordingEventSink{}
}

func (s *RecordingEventSink) Publish(ctx context.Context, event service.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// CountByType returns how many events of the given type were published.
func (s *RecordingEventSink) CountByType(eventType service.EventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.events {
		if e.Type == eventType {
			count++
		}
	}
	return count
}

// LastByType returns the most recent event of the given type, or nil.
func (s *RecordingEventSink) LastByType(eventType service.EventType) *service.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Type == eventType {
			e := s.events[i]
			return &e
		}
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK SCHEDULER
// ──────────────────────────────────────────────

// MockScheduler records scheduled status re-checks.
type MockScheduler struct {
	mu    sync.Mutex
	tasks []redis.RecheckTask

	// Error injection
	ScheduleError error
}

// NewMockScheduler creates a new mock scheduler.
func NewMockScheduler() *MockScheduler {
	return &MockScheduler{}
}

func (m *MockScheduler) ScheduleStatusRecheck(ctx context.Context, task redis.RecheckTask, delay time.Duration) error {
	if m.ScheduleError != nil {
		return m.ScheduleError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	return nil
}

// ScheduledTasks returns the recorded tasks.
func (m *MockScheduler) ScheduledTasks() []redis.RecheckTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]redis.RecheckTask, len(m.tasks))
	copy(result, m.tasks)
	return result
}

// ──────────────────────────────────────────────
// MOCK RECHECK QUEUE
// ──────────────────────────────────────────────

// MockRecheckQueue is an in-memory implementation of the recheck queue.
type MockRecheckQueue struct {
	mu      sync.Mutex
	entries map[string]entry

	// Counters
	RemoveCallCount int32
}

type entry struct {
	task redis.RecheckTask
	due  time.Time
}

// NewMockRecheckQueue creates a new mock recheck queue.
func NewMockRecheckQueue() *MockRecheckQueue {
	return &MockRecheckQueue{entries: make(map[string]entry)}
}

func (m *MockRecheckQueue) Schedule(ctx context.Context, task redis.RecheckTask, due time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[task.TID] = entry{task: task, due: due}
	return nil
}

func (m *MockRecheckQueue) Due(ctx context.Context, now time.Time, limit int64) ([]redis.RecheckTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []redis.RecheckTask
	for _, e := range m.entries {
		if !e.due.After(now) && int64(len(due)) < limit {
			due = append(due, e.task)
		}
	}
	return due, nil
}

func (m *MockRecheckQueue) Remove(ctx context.Context, task redis.RecheckTask) error {
	atomic.AddInt32(&m.RemoveCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, task.TID)
	return nil
}

// Size returns the number of queued tasks.
func (m *MockRecheckQueue) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of the transaction lock store.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Force lock failure
	ForceAcquireFailure bool

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]time.Time)}
}

func (m *MockLockStore) AcquireTransactionLock(ctx context.Context, tid string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if expiry, exists := m.locks[tid]; exists && time.Now().Before(expiry) {
		return false, nil
	}
	m.locks[tid] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseTransactionLock(ctx context.Context, tid string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, tid)
	return nil
}

// Lock pre-holds a lock for a tid (for test setup).
func (m *MockLockStore) Lock(tid string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[tid] = time.Now().Add(ttl)
}
