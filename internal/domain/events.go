package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPlacedEvent is published after a checkout commits. StockAlerts carries
// the lines whose product stock fell to the low-stock threshold so the
// notification worker can warn the sellers.
type OrderPlacedEvent struct {
	OrderID     string          `json:"order_id"`
	CustomerID  string          `json:"customer_id"`
	FinalTotal  decimal.Decimal `json:"final_total"`
	Items       []OrderLineItem `json:"items"`
	StockAlerts []StockAlert    `json:"stock_alerts,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

type StockAlert struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	SellerID    string `json:"seller_id"`
	Remaining   int    `json:"remaining"`
}
