package domain

import "github.com/shopspring/decimal"

// VoucherLedger is the per-customer record of lifetime spend and voucher
// consumption. TotalSpent and ExtraVouchersEarned only ever grow;
// ExtraVoucherBalance grows on milestone credits and shrinks on redemption.
type VoucherLedger struct {
	CustomerID          string          `json:"customer_id"`
	TotalSpent          decimal.Decimal `json:"total_spent"`
	FivePctUsed         bool            `json:"five_percent_voucher_used"`
	TenPctUsed          bool            `json:"ten_percent_voucher_used"`
	TwentyPctUsed       bool            `json:"twenty_percent_voucher_used"`
	ExtraVoucherBalance int             `json:"extra_voucher_balance"`
	ExtraVouchersEarned int             `json:"extra_vouchers_earned"`
}
