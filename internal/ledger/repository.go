package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

const defaultListLimit = 50

type Filter struct {
	CustomerID     string
	NeedsAttention bool
	Limit          int
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Record stores a. A second attempt with the same idempotency key is ignored
// and reported with inserted == false.
func (r *Repository) Record(ctx context.Context, a *Attempt) (bool, error) {
	a.ID = uuid.New().String()

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO attempts (
			id, idempotency_key, order_id, order_code, customer_id, payment_method,
			shipping_fee, total_product_price, total_order_price,
			cleanup_failures, payment_link_failed, placed_at, recorded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (idempotency_key) DO NOTHING
	`, a.ID, a.IdempotencyKey, a.OrderID, a.OrderCode, a.CustomerID, string(a.PaymentMethod),
		a.ShippingFee, a.TotalProductPrice, a.TotalOrderPrice,
		pq.Array(a.CleanupFailures), a.PaymentLinkFailed, a.PlacedAt)
	if err != nil {
		return false, fmt.Errorf("insert attempt: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// GetByOrderCode returns nil when no attempt has that order code.
func (r *Repository) GetByOrderCode(ctx context.Context, code string) (*Attempt, error) {
	row := r.db.QueryRowContext(ctx, selectAttempts+` WHERE order_code = $1 ORDER BY placed_at DESC LIMIT 1`, code)

	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Attempt, error) {
	var (
		where []string
		args  []any
	)
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if f.NeedsAttention {
		where = append(where, "(cardinality(cleanup_failures) > 0 OR payment_link_failed)")
	}

	limit := f.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	query := selectAttempts
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY placed_at DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	attempts := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

const selectAttempts = `
	SELECT id, idempotency_key, order_id, order_code, customer_id, payment_method,
		shipping_fee, total_product_price, total_order_price,
		cleanup_failures, payment_link_failed, placed_at, recorded_at
	FROM attempts`

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(s scanner) (Attempt, error) {
	var (
		a      Attempt
		method string
	)
	err := s.Scan(&a.ID, &a.IdempotencyKey, &a.OrderID, &a.OrderCode, &a.CustomerID, &method,
		&a.ShippingFee, &a.TotalProductPrice, &a.TotalOrderPrice,
		pq.Array(&a.CleanupFailures), &a.PaymentLinkFailed, &a.PlacedAt, &a.RecordedAt)
	if err != nil {
		return Attempt{}, err
	}
	a.PaymentMethod = domain.PaymentMethod(method)
	if a.CleanupFailures == nil {
		a.CleanupFailures = []string{}
	}
	return a, nil
}
