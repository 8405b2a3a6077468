package postgres

import (
	"context"
	"database/sql"
	"errors"

	"paygw/internal/domain"
	"paygw/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// Create persists a new payment record. The unique index on
// provider_order_id is the race guard: the second of two concurrent
// reconciliations gets repository.ErrDuplicate here.
func (r *PaymentRepository) Create(ctx context.Context, record *domain.PaymentRecord) error {
	query := `
		INSERT INTO payments (id, paymentid, provider_order_id, brand, brand_raw)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		record.ID,
		record.PaymentID,
		record.ProviderOrderID,
		record.Brand,
		record.BrandRaw,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}

	return err
}

// GetByProviderOrderID retrieves a payment record by provider order id.
// Returns nil if no record exists.
func (r *PaymentRepository) GetByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.PaymentRecord, error) {
	query := `
		SELECT id, paymentid, provider_order_id, brand, brand_raw
		FROM payments WHERE provider_order_id = $1
	`

	var record domain.PaymentRecord
	err := r.q.QueryRowContext(ctx, query, providerOrderID).Scan(
		&record.ID,
		&record.PaymentID,
		&record.ProviderOrderID,
		&record.Brand,
		&record.BrandRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &record, nil
}
