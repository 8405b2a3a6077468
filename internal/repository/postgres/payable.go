package postgres

import (
	"context"
	"database/sql"
	"errors"

	"paygw/internal/domain"
	"paygw/internal/repository"
)

// PayableRepository is a PostgreSQL implementation of repository.PayableRepository.
type PayableRepository struct {
	q Querier
}

// NewPayableRepository creates a new PostgreSQL payable repository.
func NewPayableRepository(db *sql.DB) *PayableRepository {
	return &PayableRepository{q: db}
}

// Get retrieves the payable for an item in a component's payment area.
func (r *PayableRepository) Get(ctx context.Context, component, paymentArea string, itemID int) (*domain.Payable, error) {
	query := `
		SELECT component, paymentarea, itemid, amount, currency, accountid, successurl
		FROM payable_items
		WHERE component = $1 AND paymentarea = $2 AND itemid = $3
	`

	var payable domain.Payable
	err := r.q.QueryRowContext(ctx, query, component, paymentArea, itemID).Scan(
		&payable.Component,
		&payable.PaymentArea,
		&payable.ItemID,
		&payable.Amount,
		&payable.Currency,
		&payable.AccountID,
		&payable.SuccessURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &payable, nil
}
