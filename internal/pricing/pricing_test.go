package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pitstop-ph/pitstop/internal/domain"
)

func peso(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPreview_PercentageEligibility(t *testing.T) {
	subtotal := peso("1000")

	t.Run("below threshold is ineligible", func(t *testing.T) {
		ledger := domain.VoucherLedger{TotalSpent: peso("4999")}

		q := Preview(subtotal, CodeFivePct, ledger)

		if !q.Discount.IsZero() {
			t.Errorf("expected zero discount, got %s", q.Discount)
		}
		if q.VoucherCode != "" {
			t.Errorf("expected code cleared, got %q", q.VoucherCode)
		}
		if !q.ConvenienceFee.Equal(peso("50.00")) {
			t.Errorf("expected fee 50.00, got %s", q.ConvenienceFee)
		}
		if !q.FinalTotal.Equal(peso("1050.00")) {
			t.Errorf("expected final 1050.00, got %s", q.FinalTotal)
		}
	})

	t.Run("at threshold applies 5%", func(t *testing.T) {
		ledger := domain.VoucherLedger{TotalSpent: peso("5000")}

		q := Preview(subtotal, CodeFivePct, ledger)

		if !q.Discount.Equal(peso("50.00")) {
			t.Errorf("expected discount 50.00, got %s", q.Discount)
		}
		if !q.DiscountedTotal.Equal(peso("950.00")) {
			t.Errorf("expected discounted 950.00, got %s", q.DiscountedTotal)
		}
		if !q.ConvenienceFee.Equal(peso("47.50")) {
			t.Errorf("expected fee 47.50, got %s", q.ConvenienceFee)
		}
		if !q.FinalTotal.Equal(peso("997.50")) {
			t.Errorf("expected final 997.50, got %s", q.FinalTotal)
		}
		if q.VoucherCode != CodeFivePct {
			t.Errorf("expected code %q, got %q", CodeFivePct, q.VoucherCode)
		}
	})

	t.Run("used flag blocks reuse", func(t *testing.T) {
		ledger := domain.VoucherLedger{TotalSpent: peso("50000"), TenPctUsed: true}

		q := Preview(subtotal, CodeTenPct, ledger)

		if !q.Discount.IsZero() || q.VoucherCode != "" {
			t.Errorf("expected no discount for used voucher, got %s / %q", q.Discount, q.VoucherCode)
		}
	})

	t.Run("tiers are independent", func(t *testing.T) {
		// qualifying for 20% without ever using 5% is allowed
		ledger := domain.VoucherLedger{TotalSpent: peso("25000")}

		q := Preview(subtotal, CodeTwentyPct, ledger)

		if !q.Discount.Equal(peso("200.00")) {
			t.Errorf("expected discount 200.00, got %s", q.Discount)
		}
	})

	t.Run("unknown code clears silently", func(t *testing.T) {
		ledger := domain.VoucherLedger{TotalSpent: peso("50000")}

		q := Preview(subtotal, "HALFOFF", ledger)

		if !q.Discount.IsZero() || q.VoucherCode != "" {
			t.Errorf("expected unknown code rejected, got %s / %q", q.Discount, q.VoucherCode)
		}
	})
}

func TestPreview_FlatVoucher(t *testing.T) {
	t.Run("applies when balance positive", func(t *testing.T) {
		ledger := domain.VoucherLedger{ExtraVoucherBalance: 2}

		q := Preview(peso("1000"), CodeFlat250, ledger)

		if !q.Discount.Equal(peso("250")) {
			t.Errorf("expected discount 250, got %s", q.Discount)
		}
		if !q.FinalTotal.Equal(peso("787.50")) {
			t.Errorf("expected final 787.50, got %s", q.FinalTotal)
		}
	})

	t.Run("ineligible with zero balance", func(t *testing.T) {
		ledger := domain.VoucherLedger{}

		q := Preview(peso("1000"), CodeFlat250, ledger)

		if !q.Discount.IsZero() || q.VoucherCode != "" {
			t.Errorf("expected no discount, got %s / %q", q.Discount, q.VoucherCode)
		}
	})

	t.Run("discounted total floors at zero for small subtotals", func(t *testing.T) {
		ledger := domain.VoucherLedger{ExtraVoucherBalance: 1}

		q := Preview(peso("100"), CodeFlat250, ledger)

		if !q.DiscountedTotal.IsZero() {
			t.Errorf("expected discounted total 0, got %s", q.DiscountedTotal)
		}
		if !q.FinalTotal.IsZero() {
			t.Errorf("expected final 0, got %s", q.FinalTotal)
		}
	})
}

func TestApply_MatchesPreviewAndConsumes(t *testing.T) {
	subtotal := peso("1000")

	t.Run("numbers identical to preview", func(t *testing.T) {
		ledger := domain.VoucherLedger{TotalSpent: peso("5000")}

		preview := Preview(subtotal, CodeFivePct, ledger)
		applied := Apply(subtotal, CodeFivePct, &ledger)

		if !preview.Discount.Equal(applied.Discount) ||
			!preview.ConvenienceFee.Equal(applied.ConvenienceFee) ||
			!preview.FinalTotal.Equal(applied.FinalTotal) {
			t.Errorf("preview %+v and apply %+v diverge", preview, applied)
		}
	})

	t.Run("marks one-time flag", func(t *testing.T) {
		ledger := domain.VoucherLedger{TotalSpent: peso("5000")}

		Apply(subtotal, CodeFivePct, &ledger)

		if !ledger.FivePctUsed {
			t.Error("expected five percent flag marked used")
		}

		q := Apply(subtotal, CodeFivePct, &ledger)
		if !q.Discount.IsZero() {
			t.Errorf("expected second apply ineligible, got discount %s", q.Discount)
		}
	})

	t.Run("decrements flat balance", func(t *testing.T) {
		ledger := domain.VoucherLedger{ExtraVoucherBalance: 1}

		Apply(subtotal, CodeFlat250, &ledger)

		if ledger.ExtraVoucherBalance != 0 {
			t.Errorf("expected balance 0, got %d", ledger.ExtraVoucherBalance)
		}

		q := Apply(subtotal, CodeFlat250, &ledger)
		if !q.Discount.IsZero() {
			t.Errorf("expected empty balance ineligible, got discount %s", q.Discount)
		}
		if ledger.ExtraVoucherBalance != 0 {
			t.Errorf("balance must not go negative, got %d", ledger.ExtraVoucherBalance)
		}
	})

	t.Run("ineligible apply mutates nothing", func(t *testing.T) {
		ledger := domain.VoucherLedger{TotalSpent: peso("4999")}

		Apply(subtotal, CodeFivePct, &ledger)

		if ledger.FivePctUsed {
			t.Error("ineligible apply must not consume the voucher")
		}
	})
}

func TestRecordSpend(t *testing.T) {
	t.Run("accumulates fee-inclusive total", func(t *testing.T) {
		ledger := domain.VoucherLedger{TotalSpent: peso("5000")}

		RecordSpend(&ledger, peso("997.50"))

		if !ledger.TotalSpent.Equal(peso("5997.50")) {
			t.Errorf("expected total spent 5997.50, got %s", ledger.TotalSpent)
		}
	})

	t.Run("no credit at or below 20000", func(t *testing.T) {
		ledger := domain.VoucherLedger{TotalSpent: peso("19000")}

		RecordSpend(&ledger, peso("1000"))

		if ledger.ExtraVoucherBalance != 0 || ledger.ExtraVouchersEarned != 0 {
			t.Errorf("expected no credit at exactly 20000, got balance=%d earned=%d",
				ledger.ExtraVoucherBalance, ledger.ExtraVouchersEarned)
		}
	})

	t.Run("credits one voucher per completed block", func(t *testing.T) {
		ledger := domain.VoucherLedger{TotalSpent: peso("19000")}

		RecordSpend(&ledger, peso("12000")) // 31000 → 2 blocks past 20000

		if ledger.ExtraVoucherBalance != 2 {
			t.Errorf("expected balance 2, got %d", ledger.ExtraVoucherBalance)
		}
		if ledger.ExtraVouchersEarned != 2 {
			t.Errorf("expected earned 2, got %d", ledger.ExtraVouchersEarned)
		}
	})

	t.Run("already credited blocks are not re-granted", func(t *testing.T) {
		ledger := domain.VoucherLedger{TotalSpent: peso("31000"), ExtraVoucherBalance: 0, ExtraVouchersEarned: 2}

		RecordSpend(&ledger, peso("0"))

		if ledger.ExtraVoucherBalance != 0 {
			t.Errorf("re-evaluating same spend must not credit, got balance %d", ledger.ExtraVoucherBalance)
		}

		RecordSpend(&ledger, peso("4000")) // 35000 → 3rd block
		if ledger.ExtraVoucherBalance != 1 || ledger.ExtraVouchersEarned != 3 {
			t.Errorf("expected one new block, got balance=%d earned=%d",
				ledger.ExtraVoucherBalance, ledger.ExtraVouchersEarned)
		}
	})

	t.Run("earned counter survives redemptions", func(t *testing.T) {
		// customer spent past 25000 then redeemed the voucher
		ledger := domain.VoucherLedger{TotalSpent: peso("26000"), ExtraVoucherBalance: 0, ExtraVouchersEarned: 1}

		RecordSpend(&ledger, peso("100"))

		if ledger.ExtraVoucherBalance != 0 {
			t.Errorf("redeemed block must not be re-credited, got %d", ledger.ExtraVoucherBalance)
		}
	})
}

func TestAvailableOffers(t *testing.T) {
	ledger := domain.VoucherLedger{
		TotalSpent:          peso("22000"),
		FivePctUsed:         true,
		ExtraVoucherBalance: 1,
	}

	offers := AvailableOffers(ledger)

	codes := make([]string, len(offers))
	for i, o := range offers {
		codes[i] = o.Code
	}

	want := []string{CodeTenPct, CodeTwentyPct, CodeFlat250}
	if len(codes) != len(want) {
		t.Fatalf("expected offers %v, got %v", want, codes)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("expected offer %s at %d, got %s", want[i], i, codes[i])
		}
	}
}
