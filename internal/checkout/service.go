// Package checkout commits a pending checkout as one transaction: pricing,
// order and line-item persistence, stock decrement and ledger update either
// all become visible together or not at all.
package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/pitstop-ph/pitstop/internal/domain"
	"github.com/pitstop-ph/pitstop/internal/pricing"
)

var ErrEmptyCart = errors.New("cart is empty")

// lowStockThreshold matches the seller dashboard's low-stock cutoff; lines
// that push a product to or below it raise a stock alert on the order event.
const lowStockThreshold = 3

type Service struct {
	db      *sql.DB
	ledgers *pricing.LedgerRepository
	logger  *slog.Logger
}

func NewService(db *sql.DB, ledgers *pricing.LedgerRepository, logger *slog.Logger) *Service {
	return &Service{
		db:      db,
		ledgers: ledgers,
		logger:  logger,
	}
}

// PlaceOrder turns a cart snapshot into a committed order. The customer's
// ledger row is locked for the whole transaction, so a double-submitted
// checkout by the same customer serializes and the second submission prices
// against the updated ledger. Product rows are locked per line; stock never
// goes below zero. Deleted products still yield a line item from the
// snapshot, with no product reference.
func (s *Service) PlaceOrder(ctx context.Context, customerID string, snapshot domain.CartSnapshot, paymentMethod string) (*domain.Order, []domain.StockAlert, error) {
	if len(snapshot.Lines) == 0 {
		return nil, nil, ErrEmptyCart
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// accounts created before the ledger table gained their row
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO voucher_ledgers (customer_id)
		VALUES ($1)
		ON CONFLICT (customer_id) DO NOTHING
	`, customerID); err != nil {
		return nil, nil, fmt.Errorf("ensure ledger row: %w", err)
	}

	ledger, err := s.ledgers.GetForUpdate(ctx, tx, customerID)
	if err != nil {
		return nil, nil, fmt.Errorf("lock ledger: %w", err)
	}

	quote := pricing.Apply(snapshot.Subtotal, snapshot.VoucherCode, ledger)

	deliveryDays := rand.Intn(5) + 1
	now := time.Now().UTC()
	deliveryETA := now.AddDate(0, 0, deliveryDays)

	order := &domain.Order{
		ID:             uuid.New().String(),
		CustomerID:     customerID,
		Subtotal:       quote.Subtotal,
		Discount:       quote.Discount,
		ConvenienceFee: quote.ConvenienceFee,
		FinalTotal:     quote.FinalTotal,
		VoucherCode:    quote.VoucherCode,
		PaymentMethod:  paymentMethod,
		DeliveryDays:   deliveryDays,
		DeliveryETA:    deliveryETA,
		CreatedAt:      now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, subtotal, applied_discount, convenience_fee,
		                    final_total, voucher_code, payment_method, delivery_days, delivery_eta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, order.ID, order.CustomerID, order.Subtotal, order.Discount, order.ConvenienceFee,
		order.FinalTotal, order.VoucherCode, order.PaymentMethod, order.DeliveryDays,
		order.DeliveryETA, order.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("insert order: %w", err)
	}

	var alerts []domain.StockAlert

	for _, line := range snapshot.Lines {
		item := domain.OrderLineItem{
			ProductName: line.Name,
			Brand:       line.Brand,
			Model:       line.Model,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		}

		var sellerID string
		var stock int
		productRef := sql.NullString{}

		err := tx.QueryRowContext(ctx, `
			SELECT seller_id, stock FROM products WHERE id = $1 FOR UPDATE
		`, line.ProductID).Scan(&sellerID, &stock)
		switch {
		case err == sql.ErrNoRows:
			// product deleted since it was carted; keep the snapshot line
		case err != nil:
			return nil, nil, fmt.Errorf("lock product %s: %w", line.ProductID, err)
		default:
			productRef = sql.NullString{String: line.ProductID, Valid: true}
			item.ProductID = line.ProductID

			newStock := stock - line.Quantity
			if newStock < 0 {
				newStock = 0
			}

			if _, err := tx.ExecContext(ctx, `
				UPDATE products SET stock = $2 WHERE id = $1
			`, line.ProductID, newStock); err != nil {
				return nil, nil, fmt.Errorf("decrement stock for %s: %w", line.ProductID, err)
			}

			if newStock <= lowStockThreshold {
				alerts = append(alerts, domain.StockAlert{
					ProductID:   line.ProductID,
					ProductName: line.Name,
					SellerID:    sellerID,
					Remaining:   newStock,
				})
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, product_name, brand, model, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New().String(), order.ID, productRef, item.ProductName, item.Brand,
			item.Model, item.UnitPrice, item.Quantity); err != nil {
			return nil, nil, fmt.Errorf("insert order item: %w", err)
		}

		order.Items = append(order.Items, item)
	}

	pricing.RecordSpend(ledger, quote.FinalTotal)

	if err := s.ledgers.SaveTx(ctx, tx, ledger); err != nil {
		return nil, nil, fmt.Errorf("save ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	s.logger.Info("order committed", "order_id", order.ID, "customer_id", customerID,
		"final_total", order.FinalTotal, "voucher_code", order.VoucherCode)

	return order, alerts, nil
}
