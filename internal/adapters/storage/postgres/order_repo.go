package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"property-brokerage-system/internal/core/domain"
)

// OrderRepository implements the OrderRepository port for PostgreSQL. A
// partial unique index on (property_id) WHERE payment_status IN
// ('PENDING','COMPLETED') backs the one-active-order invariant at the
// storage level as well.
type OrderRepository struct {
	pool *pgxpool.Pool
}

const orderColumns = `
	id, property_id, buyer_id, payment_reference, payment_status,
	amount, currency, created_at`

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	const sql = `
		INSERT INTO orders
			(id, property_id, buyer_id, payment_reference, payment_status, amount, currency, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, sql,
		o.ID, o.PropertyID, o.BuyerID, o.PaymentReference, o.PaymentStatus,
		o.Amount, o.Currency, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Delete exists solely for the placement rollback; settled and failed orders
// are never removed.
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (r *OrderRepository) GetByPaymentReference(ctx context.Context, ref string) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_reference = $1`, ref)
	return scanOrder(row)
}

func (r *OrderRepository) ActiveByProperty(ctx context.Context, propertyID uuid.UUID) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE property_id = $1 AND payment_status IN ($2, $3)
		 ORDER BY created_at DESC LIMIT 1`,
		propertyID, domain.PaymentPending, domain.PaymentCompleted)
	return scanOrder(row)
}

// SetPaymentStatus is the compare-and-set guarding idempotent callback
// processing: only one delivery can move PENDING to a terminal outcome.
func (r *OrderRepository) SetPaymentStatus(ctx context.Context, id uuid.UUID, from, to domain.PaymentStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_status = $3 WHERE id = $1 AND payment_status = $2`,
		id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, gerr := r.Get(ctx, id); gerr != nil {
			return gerr
		}
		return domain.ErrStatusConflict
	}
	return nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.PropertyID, &o.BuyerID, &o.PaymentReference, &o.PaymentStatus,
		&o.Amount, &o.Currency, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &o, nil
}
