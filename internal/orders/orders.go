package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrPaymentConsumed is returned when a checkout reuses a payment reference
// that already backs an existing order. Enforced by the unique constraint on
// payments.transaction_id so a retried request cannot create a duplicate order.
var ErrPaymentConsumed = errors.New("payment reference already used by an existing order")

// ErrOrderNotFound is returned by lookups for an order id the user does not own.
var ErrOrderNotFound = errors.New("order not found")

const uniqueViolation = "23505"

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// CreateOrder persists the order, its items, the payment and the shipment as
// one transaction. Either all four record types become durable or none do.
func (c *Conf) CreateOrder(ctx context.Context, order Order, items []OrderItem,
	payment Payment, shipment Shipment) (Order, error) {

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		queryOrder := `
			INSERT INTO orders (user_id, shipping_address_id, total_amount, order_status, payment_status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`
		err := tx.QueryRowContext(ctx, queryOrder,
			order.UserID, order.ShippingAddressID, order.TotalAmount,
			order.OrderStatus, order.PaymentStatus, order.CreatedAt,
		).Scan(&order.ID, &order.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		queryItem := `
			INSERT INTO order_items (order_id, variant_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
		`
		for _, item := range items {
			_, err = tx.ExecContext(ctx, queryItem, order.ID, item.VariantID, item.Quantity, item.UnitPrice)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}

		queryPayment := `
			INSERT INTO payments (order_id, transaction_id, status, amount, payment_method, description, currency, paid_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err = tx.ExecContext(ctx, queryPayment,
			order.ID, payment.TransactionID, payment.Status, payment.Amount,
			payment.PaymentMethod, payment.Description, payment.Currency, payment.PaidAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return ErrPaymentConsumed
			}
			return fmt.Errorf("failed to insert payment: %w", err)
		}

		queryShipment := `
			INSERT INTO shipments (order_id, courier_name, tracking_number, shipped_at, delivery_estimate, status)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err = tx.ExecContext(ctx, queryShipment,
			order.ID, shipment.CourierName, shipment.TrackingNumber,
			shipment.ShippedAt, shipment.DeliveryEstimate, shipment.Status)
		if err != nil {
			return fmt.Errorf("failed to insert shipment: %w", err)
		}

		return nil
	})
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

// ListOrders returns one page of the user's orders, newest first, along with
// the total count of orders the user has placed.
func (c *Conf) ListOrders(ctx context.Context, userID int64, limit, offset int) ([]Order, int, error) {
	queryCount := `SELECT COUNT(*) FROM orders WHERE user_id = $1`

	var total int
	if err := c.db.QueryRowContext(ctx, queryCount, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	queryOrders := `
		SELECT id, user_id, shipping_address_id, total_amount, order_status, payment_status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := c.db.QueryContext(ctx, queryOrders, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var results []Order
	for rows.Next() {
		var o Order
		err = rows.Scan(&o.ID, &o.UserID, &o.ShippingAddressID, &o.TotalAmount,
			&o.OrderStatus, &o.PaymentStatus, &o.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		results = append(results, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	return results, total, nil
}

// GetOrder fetches one order owned by the given user.
func (c *Conf) GetOrder(ctx context.Context, orderID, userID int64) (Order, error) {
	query := `
		SELECT id, user_id, shipping_address_id, total_amount, order_status, payment_status, created_at
		FROM orders
		WHERE id = $1 AND user_id = $2
	`
	var o Order
	err := c.db.QueryRowContext(ctx, query, orderID, userID).Scan(
		&o.ID, &o.UserID, &o.ShippingAddressID, &o.TotalAmount,
		&o.OrderStatus, &o.PaymentStatus, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}
	return o, nil
}

// GetOrderItems returns all line items of an order.
func (c *Conf) GetOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	query := `
		SELECT id, order_id, variant_id, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`
	rows, err := c.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.VariantID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// GetPayment returns the payment recorded for an order.
func (c *Conf) GetPayment(ctx context.Context, orderID int64) (Payment, error) {
	query := `
		SELECT id, order_id, transaction_id, status, amount, payment_method, description, currency, paid_at
		FROM payments
		WHERE order_id = $1
	`
	var p Payment
	err := c.db.QueryRowContext(ctx, query, orderID).Scan(
		&p.ID, &p.OrderID, &p.TransactionID, &p.Status, &p.Amount,
		&p.PaymentMethod, &p.Description, &p.Currency, &p.PaidAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Payment{}, ErrOrderNotFound
		}
		return Payment{}, fmt.Errorf("failed to query payment: %w", err)
	}
	return p, nil
}

// GetShipment returns the shipment recorded for an order.
func (c *Conf) GetShipment(ctx context.Context, orderID int64) (Shipment, error) {
	query := `
		SELECT id, order_id, courier_name, tracking_number, shipped_at, delivery_estimate, status
		FROM shipments
		WHERE order_id = $1
	`
	var s Shipment
	err := c.db.QueryRowContext(ctx, query, orderID).Scan(
		&s.ID, &s.OrderID, &s.CourierName, &s.TrackingNumber,
		&s.ShippedAt, &s.DeliveryEstimate, &s.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Shipment{}, ErrOrderNotFound
		}
		return Shipment{}, fmt.Errorf("failed to query shipment: %w", err)
	}
	return s, nil
}

// UpdatePaymentStatus reconciles a payment with what the gateway reported
// asynchronously and moves the order's payment_status with it. Returns the
// id of the affected order.
func (c *Conf) UpdatePaymentStatus(ctx context.Context, transactionID, gatewayStatus, paymentStatus string) (int64, error) {
	var orderID int64

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		queryPayment := `
			UPDATE payments
			SET status = $1
			WHERE transaction_id = $2
			RETURNING order_id
		`
		err := tx.QueryRowContext(ctx, queryPayment, gatewayStatus, transactionID).Scan(&orderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to update payment: %w", err)
		}

		queryOrder := `UPDATE orders SET payment_status = $1 WHERE id = $2`
		if _, err = tx.ExecContext(ctx, queryOrder, paymentStatus, orderID); err != nil {
			return fmt.Errorf("failed to update order payment status: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return orderID, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		er := tx.Rollback()
		if er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
