// Package pricing computes checkout discounts, convenience fees and final
// totals, and maintains the customer's voucher ledger. Preview and Apply share
// one computation so the numbers shown before payment are exactly the numbers
// committed.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pitstop-ph/pitstop/internal/domain"
)

const (
	CodeFivePct   = "5PCT"
	CodeTenPct    = "10PCT"
	CodeTwentyPct = "20PCT"
	CodeFlat250   = "P250"
)

var (
	thresholdFivePct   = decimal.NewFromInt(5000)
	thresholdTenPct    = decimal.NewFromInt(10000)
	thresholdTwentyPct = decimal.NewFromInt(20000)

	rateFivePct   = decimal.NewFromFloat(0.05)
	rateTenPct    = decimal.NewFromFloat(0.10)
	rateTwentyPct = decimal.NewFromFloat(0.20)

	flatVoucherAmount = decimal.NewFromInt(250)

	convenienceFeeRate = decimal.NewFromFloat(0.05)

	// milestone crediting for repeatable ₱250 vouchers
	milestoneFloor = decimal.NewFromInt(20000)
	milestoneBlock = decimal.NewFromInt(5000)
)

// Quote is the priced breakdown of a checkout. VoucherCode is the code that
// actually applied; it is empty when the requested code was unknown or
// ineligible.
type Quote struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	DiscountedTotal decimal.Decimal `json:"discounted_total"`
	ConvenienceFee  decimal.Decimal `json:"convenience_fee"`
	FinalTotal      decimal.Decimal `json:"final_total"`
	VoucherCode     string          `json:"voucher_code"`
}

// Preview prices a subtotal against the ledger without consuming anything.
// Eligibility reads the ledger as persisted before this order: the spend the
// customer was shown at cart time, not inclusive of the order being placed.
func Preview(subtotal decimal.Decimal, voucherCode string, ledger domain.VoucherLedger) Quote {
	discount := decimal.Zero
	applied := ""

	switch voucherCode {
	case CodeFivePct:
		if ledger.TotalSpent.GreaterThanOrEqual(thresholdFivePct) && !ledger.FivePctUsed {
			discount = subtotal.Mul(rateFivePct).Round(2)
			applied = voucherCode
		}
	case CodeTenPct:
		if ledger.TotalSpent.GreaterThanOrEqual(thresholdTenPct) && !ledger.TenPctUsed {
			discount = subtotal.Mul(rateTenPct).Round(2)
			applied = voucherCode
		}
	case CodeTwentyPct:
		if ledger.TotalSpent.GreaterThanOrEqual(thresholdTwentyPct) && !ledger.TwentyPctUsed {
			discount = subtotal.Mul(rateTwentyPct).Round(2)
			applied = voucherCode
		}
	case CodeFlat250:
		if ledger.ExtraVoucherBalance > 0 {
			discount = flatVoucherAmount
			applied = voucherCode
		}
	}

	discountedTotal := subtotal.Sub(discount)
	if discountedTotal.IsNegative() {
		discountedTotal = decimal.Zero
	}

	fee := discountedTotal.Mul(convenienceFeeRate).Round(2)

	return Quote{
		Subtotal:        subtotal,
		Discount:        discount,
		DiscountedTotal: discountedTotal,
		ConvenienceFee:  fee,
		FinalTotal:      discountedTotal.Add(fee),
		VoucherCode:     applied,
	}
}

// Apply prices the subtotal and consumes the applied voucher on the ledger:
// one-time percentage flags are marked used, a flat voucher is deducted from
// the balance. The returned Quote is identical to what Preview reports for the
// same inputs.
func Apply(subtotal decimal.Decimal, voucherCode string, ledger *domain.VoucherLedger) Quote {
	quote := Preview(subtotal, voucherCode, *ledger)

	switch quote.VoucherCode {
	case CodeFivePct:
		ledger.FivePctUsed = true
	case CodeTenPct:
		ledger.TenPctUsed = true
	case CodeTwentyPct:
		ledger.TwentyPctUsed = true
	case CodeFlat250:
		ledger.ExtraVoucherBalance--
	}

	return quote
}

// RecordSpend adds a committed order's fee-inclusive total to the ledger and
// credits one ₱250 voucher per completed ₱5,000 block beyond ₱20,000 lifetime
// spend. Blocks already credited are tracked in ExtraVouchersEarned, so
// re-evaluating the same cumulative spend never double-credits.
func RecordSpend(ledger *domain.VoucherLedger, finalTotal decimal.Decimal) {
	ledger.TotalSpent = ledger.TotalSpent.Add(finalTotal)

	totalBlocks := 0
	if ledger.TotalSpent.GreaterThan(milestoneFloor) {
		totalBlocks = int(ledger.TotalSpent.Sub(milestoneFloor).Div(milestoneBlock).IntPart())
	}

	if newBlocks := totalBlocks - ledger.ExtraVouchersEarned; newBlocks > 0 {
		ledger.ExtraVoucherBalance += newBlocks
		ledger.ExtraVouchersEarned = totalBlocks
	}
}

// Offer is a voucher the customer can currently use, for display at cart time.
type Offer struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// AvailableOffers lists the vouchers the ledger currently qualifies for.
func AvailableOffers(ledger domain.VoucherLedger) []Offer {
	var offers []Offer

	if ledger.TotalSpent.GreaterThanOrEqual(thresholdFivePct) && !ledger.FivePctUsed {
		offers = append(offers, Offer{Code: CodeFivePct, Label: "5% off (one-time after ₱5,000 spent)"})
	}
	if ledger.TotalSpent.GreaterThanOrEqual(thresholdTenPct) && !ledger.TenPctUsed {
		offers = append(offers, Offer{Code: CodeTenPct, Label: "10% off (one-time after ₱10,000 spent)"})
	}
	if ledger.TotalSpent.GreaterThanOrEqual(thresholdTwentyPct) && !ledger.TwentyPctUsed {
		offers = append(offers, Offer{Code: CodeTwentyPct, Label: "20% off (one-time after ₱20,000 spent)"})
	}
	if ledger.ExtraVoucherBalance > 0 {
		offers = append(offers, Offer{Code: CodeFlat250, Label: fmt.Sprintf("₱250 off (you have %d)", ledger.ExtraVoucherBalance)})
	}

	return offers
}
