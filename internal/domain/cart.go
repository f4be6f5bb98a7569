package domain

import "github.com/shopspring/decimal"

// CartLine is one entry of the session cart, keyed by product id in the
// session store. Name, brand, model and price are snapshotted at add time.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSnapshot is the immutable capture of a cart taken when checkout begins.
// Lines keep their insertion order.
type CartSnapshot struct {
	Lines       []CartLine      `json:"lines"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	VoucherCode string          `json:"voucher_code"`
}

func SnapshotCart(lines []CartLine, voucherCode string) CartSnapshot {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
	}
	return CartSnapshot{Lines: lines, Subtotal: subtotal, VoucherCode: voucherCode}
}
