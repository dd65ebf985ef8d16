package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/florist-storefront/internal/domain/order"
)

const createOrderSQL = `INSERT INTO orders
	(id, items, total, currency, converted_total, payment_method, customer, shipping, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. Items, customer and shipping details are
// serialized to JSON for storage in JSONB columns.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}
	customerJSON, err := json.Marshal(o.Customer)
	if err != nil {
		return errors.Wrap(err, "marshal customer")
	}
	shippingJSON, err := json.Marshal(o.Shipping)
	if err != nil {
		return errors.Wrap(err, "marshal shipping address")
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID,
		itemsJSON,
		o.Total,
		string(o.Currency),
		o.ConvertedTotal,
		o.PaymentMethod,
		customerJSON,
		shippingJSON,
		o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}

	return nil
}
