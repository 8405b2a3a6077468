package postgres

import (
	"context"
	"database/sql"
	"errors"

	"paygw/internal/domain"
)

// BillingRepository is a PostgreSQL implementation of repository.BillingRepository.
type BillingRepository struct {
	q Querier
}

// NewBillingRepository creates a new PostgreSQL billing repository.
func NewBillingRepository(db *sql.DB) *BillingRepository {
	return &BillingRepository{q: db}
}

// NewBillingRepositoryWithTx creates a billing repository using a transaction.
func NewBillingRepositoryWithTx(tx *sql.Tx) *BillingRepository {
	return &BillingRepository{q: tx}
}

// Save persists a billing payment and returns its id.
func (r *BillingRepository) Save(ctx context.Context, payment *domain.BillingPayment) (string, error) {
	query := `
		INSERT INTO billing_payments (id, accountid, component, paymentarea, itemid, userid, amount, currency, gateway, timecreated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.AccountID,
		payment.Component,
		payment.PaymentArea,
		payment.ItemID,
		payment.UserID,
		payment.Amount,
		payment.Currency,
		payment.Gateway,
		payment.TimeCreated,
	)
	if err != nil {
		return "", err
	}

	return payment.ID, nil
}

// GetByComponentItemUser retrieves a billing payment by the
// (component, itemid, userid) combination. Returns nil if none exists.
func (r *BillingRepository) GetByComponentItemUser(ctx context.Context, component string, itemID, userID int) (*domain.BillingPayment, error) {
	query := `
		SELECT id, accountid, component, paymentarea, itemid, userid, amount, currency, gateway, timecreated
		FROM billing_payments
		WHERE component = $1 AND itemid = $2 AND userid = $3
	`

	var payment domain.BillingPayment
	err := r.q.QueryRowContext(ctx, query, component, itemID, userID).Scan(
		&payment.ID,
		&payment.AccountID,
		&payment.Component,
		&payment.PaymentArea,
		&payment.ItemID,
		&payment.UserID,
		&payment.Amount,
		&payment.Currency,
		&payment.Gateway,
		&payment.TimeCreated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &payment, nil
}
