package repository

import (
	"context"

	"paygw/internal/domain"
)

// OrderRepository defines the persistence operations for open orders.
type OrderRepository interface {
	// Open persists a new open order in pending state.
	// Returns ErrDuplicate if an order for the tid already exists.
	Open(ctx context.Context, order *domain.OpenOrder) error

	// GetByTID retrieves an open order by transaction id.
	// Returns nil if no order exists for the tid.
	GetByTID(ctx context.Context, tid string) (*domain.OpenOrder, error)

	// MarkComplete transitions an order to complete and bumps its
	// modification time. Returns ErrNotFound if the tid is absent.
	// Calling it on an already complete order is a safe no-op.
	MarkComplete(ctx context.Context, tid string) error
}
