package repository

import (
	"context"

	"paygw/internal/domain"
)

// PaymentRepository defines the persistence operations for gateway payment
// records.
type PaymentRepository interface {
	// Create persists a new payment record. Returns ErrDuplicate if a
	// record for the provider order id already exists.
	Create(ctx context.Context, record *domain.PaymentRecord) error

	// GetByProviderOrderID retrieves a payment record by provider order id.
	// Returns nil if no record exists.
	GetByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.PaymentRecord, error)
}

// BillingRepository defines the operations on the generic billing ledger
// consumed by the gateway.
type BillingRepository interface {
	// Save persists a billing payment and returns its id.
	Save(ctx context.Context, payment *domain.BillingPayment) (string, error)

	// GetByComponentItemUser retrieves a billing payment by the
	// (component, itemid, userid) combination. Returns nil if none exists.
	GetByComponentItemUser(ctx context.Context, component string, itemID, userID int) (*domain.BillingPayment, error)
}
