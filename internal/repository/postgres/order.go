package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"paygw/internal/domain"
	"paygw/internal/repository"
)

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

// NewOrderRepositoryWithTx creates an order repository using a transaction.
func NewOrderRepositoryWithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{q: tx}
}

// Open persists a new open order. The unique index on tid turns a replayed
// checkout initiation into repository.ErrDuplicate.
func (r *OrderRepository) Open(ctx context.Context, order *domain.OpenOrder) error {
	query := `
		INSERT INTO open_orders (tid, component, paymentarea, itemid, userid, price, status, timecreated, timemodified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		order.TID,
		order.Component,
		order.PaymentArea,
		order.ItemID,
		order.UserID,
		order.Price,
		order.Status,
		order.TimeCreated,
		order.TimeModified,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}

	return err
}

// GetByTID retrieves an open order by transaction id.
// Returns nil if no order exists for the tid.
func (r *OrderRepository) GetByTID(ctx context.Context, tid string) (*domain.OpenOrder, error) {
	query := `
		SELECT tid, component, paymentarea, itemid, userid, price, status, timecreated, timemodified
		FROM open_orders WHERE tid = $1
	`

	var order domain.OpenOrder
	err := r.q.QueryRowContext(ctx, query, tid).Scan(
		&order.TID,
		&order.Component,
		&order.PaymentArea,
		&order.ItemID,
		&order.UserID,
		&order.Price,
		&order.Status,
		&order.TimeCreated,
		&order.TimeModified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &order, nil
}

// MarkComplete transitions the order to complete. The status guard in the
// WHERE clause makes a repeated call a no-op instead of corrupting state.
func (r *OrderRepository) MarkComplete(ctx context.Context, tid string) error {
	query := `
		UPDATE open_orders SET status = $1, timemodified = $2
		WHERE tid = $3 AND status <> $1
	`

	result, err := r.q.ExecContext(ctx, query, domain.OrderStatusComplete, time.Now(), tid)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Distinguish "absent" from "already complete".
		order, err := r.GetByTID(ctx, tid)
		if err != nil {
			return err
		}
		if order == nil {
			return repository.ErrNotFound
		}
	}

	return nil
}

// isUniqueViolation reports whether err is a postgres unique constraint
// violation (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
