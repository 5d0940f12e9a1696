package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rebite/rebite/internal/core/domain"
	"github.com/rebite/rebite/internal/port"
)

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, total_amount_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.Status, order.TotalAmountCents,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, listing_id, quantity, unit_price_cents, total_cents)
			VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID, order.ID, item.ListingID, item.Quantity,
			item.UnitPriceCents, item.TotalCents,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}

		// Check-and-decrement in one statement so two concurrent orders
		// cannot both pass a stale quantity read.
		result, err := tx.ExecContext(ctx, `
			UPDATE listings
			SET quantity = quantity - ?, updated_at = NOW()
			WHERE id = ? AND quantity >= ?`,
			item.Quantity, item.ListingID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement listing quantity: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return port.ErrInsufficientQuantity
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, total_amount_cents, created_at, updated_at
		FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmountCents, &o.CreatedAt, &o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT id, order_id, listing_id, quantity, unit_price_cents, total_cents
		FROM order_items WHERE order_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ListingID,
			&item.Quantity, &item.UnitPriceCents, &item.TotalCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return &o, nil
}

// UpdateOrderStatus guards the lifecycle by pinning the expected current
// status in the WHERE clause; a concurrent move surfaces as ErrConflict.
func (m *MySQLAdapter) UpdateOrderStatus(ctx context.Context, id string, to domain.OrderStatus) error {
	order, err := m.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order == nil {
		return sql.ErrNoRows
	}
	if !domain.CanTransition(order.Status, to) {
		return fmt.Errorf("%w: %s -> %s", port.ErrInvalidTransition, order.Status, to)
	}

	result, err := m.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = NOW()
		WHERE id = ? AND status = ?`,
		to, id, order.Status,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrConflict
	}
	return nil
}

// CancelOrder flips the order to cancelled and restores each listing's
// quantity, all in one transaction. Only pending and confirmed orders
// can be cancelled.
func (m *MySQLAdapter) CancelOrder(ctx context.Context, id string) error {
	order, err := m.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order == nil {
		return sql.ErrNoRows
	}
	if !domain.CanTransition(order.Status, domain.OrderStatusCancelled) {
		return fmt.Errorf("%w: %s -> %s", port.ErrInvalidTransition, order.Status, domain.OrderStatusCancelled)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = NOW()
		WHERE id = ? AND status = ?`,
		domain.OrderStatusCancelled, id, order.Status,
	)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrConflict
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			UPDATE listings SET quantity = quantity + ?, updated_at = NOW()
			WHERE id = ?`,
			item.Quantity, item.ListingID,
		)
		if err != nil {
			return fmt.Errorf("restore listing quantity: %w", err)
		}
	}

	return tx.Commit()
}
