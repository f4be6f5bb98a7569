package orders

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/pitstop-ph/pitstop/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// GetByID loads an order for its owning customer. Returns nil when the order
// does not exist or belongs to someone else.
func (r *OrderRepository) GetByID(ctx context.Context, id, customerID string) (*domain.Order, error) {
	order := &domain.Order{}

	var eta sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, subtotal, applied_discount, convenience_fee, final_total,
		       voucher_code, payment_method, delivery_days, delivery_eta, created_at
		FROM orders
		WHERE id = $1 AND customer_id = $2
	`, id, customerID).Scan(&order.ID, &order.CustomerID, &order.Subtotal, &order.Discount,
		&order.ConvenienceFee, &order.FinalTotal, &order.VoucherCode, &order.PaymentMethod,
		&order.DeliveryDays, &eta, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if eta.Valid {
		order.DeliveryETA = eta.Time
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(product_id::text, ''), product_name, brand, model, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderLineItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Brand, &item.Model, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// ListByCustomer returns the customer's order history, newest first, with
// line items loaded in one batched query.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, subtotal, applied_discount, convenience_fee, final_total,
		       voucher_code, payment_method, delivery_days, delivery_eta, created_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		var eta sql.NullTime
		if err := rows.Scan(&order.ID, &order.CustomerID, &order.Subtotal, &order.Discount,
			&order.ConvenienceFee, &order.FinalTotal, &order.VoucherCode, &order.PaymentMethod,
			&order.DeliveryDays, &eta, &order.CreatedAt); err != nil {
			return nil, err
		}
		if eta.Valid {
			order.DeliveryETA = eta.Time
		}
		order.Items = []domain.OrderLineItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, COALESCE(product_id::text, ''), product_name, brand, model, unit_price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderLineItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.ProductName, &item.Brand, &item.Model, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}
