package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"paygw/internal/domain"
	"paygw/internal/service"
)

// Ledger is the PostgreSQL implementation of service.OrderLedger. Reads go
// through the plain repositories; CompletePayment composes the
// transaction-scoped ones.
type Ledger struct {
	db       *sql.DB
	orders   *OrderRepository
	payments *PaymentRepository
	billing  *BillingRepository
}

// NewLedger creates a new PostgreSQL order ledger.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{
		db:       db,
		orders:   NewOrderRepository(db),
		payments: NewPaymentRepository(db),
		billing:  NewBillingRepository(db),
	}
}

// OpenOrder persists a new pending order.
func (l *Ledger) OpenOrder(ctx context.Context, order *domain.OpenOrder) error {
	return l.orders.Open(ctx, order)
}

// FindOrder retrieves an open order by tid; nil if absent.
func (l *Ledger) FindOrder(ctx context.Context, tid string) (*domain.OpenOrder, error) {
	return l.orders.GetByTID(ctx, tid)
}

// FindPaymentByProviderOrderID retrieves the gateway payment record for a tid.
func (l *Ledger) FindPaymentByProviderOrderID(ctx context.Context, tid string) (*domain.PaymentRecord, error) {
	return l.payments.GetByProviderOrderID(ctx, tid)
}

// FindBillingPayment retrieves a completed billing payment by
// (component, itemid, userid).
func (l *Ledger) FindBillingPayment(ctx context.Context, component string, itemID, userID int) (*domain.BillingPayment, error) {
	return l.billing.GetByComponentItemUser(ctx, component, itemID, userID)
}

// CompletePayment records the billing payment, the gateway payment record,
// and the order transition in one transaction. The unique index on
// payments.provider_order_id turns the second of two racing completions
// into repository.ErrDuplicate, which rolls everything back.
func (l *Ledger) CompletePayment(ctx context.Context, params service.CompletePaymentParams) (string, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Create transaction-scoped repositories.
	txBilling := NewBillingRepositoryWithTx(tx)
	txPayments := NewPaymentRepositoryWithTx(tx)
	txOrders := NewOrderRepositoryWithTx(tx)

	var paymentID string
	paymentID, err = txBilling.Save(ctx, &domain.BillingPayment{
		ID:          uuid.New().String(),
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
	if err != nil {
		return "", err
	}

	if err = txPayments.Create(ctx, &domain.PaymentRecord{
		ID:              uuid.New().String(),
		PaymentID:       paymentID,
		ProviderOrderID: params.TID,
		Brand:           domain.NormalizeBrand(params.BrandRaw),
		BrandRaw:        params.BrandRaw,
	}); err != nil {
		return "", err
	}

	if err = txOrders.MarkComplete(ctx, params.TID); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}

	return paymentID, nil
}

var _ service.OrderLedger = (*Ledger)(nil)
