package repository

import (
	"context"

	"paygw/internal/domain"
)

// PayableRepository resolves the payment context for purchasable items.
type PayableRepository interface {
	// Get retrieves the payable for an item in a component's payment area.
	// Returns ErrNotFound if the item is not payable.
	Get(ctx context.Context, component, paymentArea string, itemID int) (*domain.Payable, error)
}
