package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryStage is derived from elapsed days against the order's randomized
// delivery window. It is never persisted.
type DeliveryStage string

const (
	DeliveryAwaitingDispatch DeliveryStage = "awaiting_dispatch"
	DeliveryPacking          DeliveryStage = "packing"
	DeliveryInTransit        DeliveryStage = "in_transit"
	DeliveryDelivering       DeliveryStage = "delivering"
	DeliveryDelivered        DeliveryStage = "delivered"
)

type Order struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customer_id"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"applied_discount"`
	ConvenienceFee decimal.Decimal `json:"convenience_fee"`
	FinalTotal     decimal.Decimal `json:"final_total"`
	VoucherCode    string          `json:"voucher_code"`
	PaymentMethod  string          `json:"payment_method"`
	DeliveryDays   int             `json:"delivery_days"`
	DeliveryETA    time.Time       `json:"delivery_eta"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []OrderLineItem `json:"items"`
}

// OrderLineItem snapshots the product at purchase time. ProductID is a weak
// reference kept for stock reconciliation; it is empty when the product has
// since been deleted.
type OrderLineItem struct {
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Brand       string          `json:"brand"`
	Model       string          `json:"model"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// Stage reports where the order is in its delivery window as of now.
func (o *Order) Stage(now time.Time) DeliveryStage {
	if o.DeliveryDays == 0 || o.DeliveryETA.IsZero() {
		return DeliveryAwaitingDispatch
	}

	created := time.Date(o.CreatedAt.Year(), o.CreatedAt.Month(), o.CreatedAt.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	daysSince := int(today.Sub(created).Hours() / 24)

	switch {
	case daysSince <= 0:
		return DeliveryPacking
	case daysSince < o.DeliveryDays-1:
		return DeliveryInTransit
	case daysSince < o.DeliveryDays:
		return DeliveryDelivering
	default:
		return DeliveryDelivered
	}
}
