package service

import (
	"context"

	"paygw/internal/domain"
)

// CompletePaymentParams carries everything the ledger needs to record a
// confirmed payment atomically.
type CompletePaymentParams struct {
	TID         string
	Component   string
	PaymentArea string
	ItemID      int
	UserID      int
	Amount      float64
	Currency    string
	AccountID   string
	Gateway     string
	BrandRaw    string
}

// OrderLedger is the durable store of open orders and completed payments.
// CompletePayment must be atomic: either the billing row, the payment
// record, and the order transition all persist, or none do.
type OrderLedger interface {
	// OpenOrder persists a new pending order.
	OpenOrder(ctx context.Context, order *domain.OpenOrder) error

	// FindOrder retrieves an open order by tid; nil if absent.
	FindOrder(ctx context.Context, tid string) (*domain.OpenOrder, error)

	// FindPaymentByProviderOrderID retrieves the gateway payment record for
	// a tid; nil if absent.
	FindPaymentByProviderOrderID(ctx context.Context, tid string) (*domain.PaymentRecord, error)

	// FindBillingPayment retrieves a completed billing payment for the
	// (component, itemid, userid) combination; nil if absent.
	FindBillingPayment(ctx context.Context, component string, itemID, userID int) (*domain.BillingPayment, error)

	// CompletePayment records the billing payment, the gateway payment
	// record, and the order transition to complete in one atomic step.
	// Returns the billing payment id. A concurrent completion for the same
	// tid fails with repository.ErrDuplicate.
	CompletePayment(ctx context.Context, params CompletePaymentParams) (string, error)
}
