// Package badge classifies a seller's lifetime revenue into a tiered store
// badge. The storefront and the seller dashboard both evaluate badges through
// this package so a seller can never show two different tiers.
package badge

import "github.com/shopspring/decimal"

type Level string

const (
	LevelNone     Level = "none"
	LevelVerified Level = "verified"
	LevelTop      Level = "top"
)

var (
	thresholdVerified = decimal.NewFromInt(10000)
	thresholdTop      = decimal.NewFromInt(100000)

	hundred = decimal.NewFromInt(100)
)

type Badge struct {
	Level             Level           `json:"level"`
	Label             string          `json:"label"`
	NextLabel         string          `json:"next_label,omitempty"`
	AmountToNext      decimal.Decimal `json:"amount_to_next"`
	ProgressToNextPct int             `json:"progress_to_next_pct"`
}

// Evaluate maps lifetime revenue to a badge tier with progress toward the
// next tier. Progress is truncated to a whole percentage and clamped to 100.
func Evaluate(lifetimeRevenue decimal.Decimal) Badge {
	switch {
	case lifetimeRevenue.GreaterThanOrEqual(thresholdTop):
		return Badge{
			Level:             LevelTop,
			Label:             "Top Store",
			AmountToNext:      decimal.Zero,
			ProgressToNextPct: 100,
		}
	case lifetimeRevenue.GreaterThanOrEqual(thresholdVerified):
		band := lifetimeRevenue.Sub(thresholdVerified)
		return Badge{
			Level:             LevelVerified,
			Label:             "Verified Store",
			NextLabel:         "Top Store",
			AmountToNext:      thresholdTop.Sub(lifetimeRevenue),
			ProgressToNextPct: progress(band, thresholdTop.Sub(thresholdVerified)),
		}
	default:
		return Badge{
			Level:             LevelNone,
			Label:             "No badge yet",
			NextLabel:         "Verified Store",
			AmountToNext:      thresholdVerified.Sub(lifetimeRevenue),
			ProgressToNextPct: progress(lifetimeRevenue, thresholdVerified),
		}
	}
}

func progress(current, band decimal.Decimal) int {
	pct := int(current.Mul(hundred).Div(band).IntPart())
	if pct > 100 {
		return 100
	}
	return pct
}
