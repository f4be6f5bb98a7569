package badge

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		revenue      int64
		wantLevel    Level
		wantProgress int
		wantToNext   int64
	}{
		{"zero revenue", 0, LevelNone, 0, 10000},
		{"just below verified", 9999, LevelNone, 99, 1},
		{"exactly verified", 10000, LevelVerified, 0, 90000},
		{"midway to top", 55000, LevelVerified, 50, 45000},
		{"just below top", 99999, LevelVerified, 99, 1},
		{"exactly top", 100000, LevelTop, 100, 0},
		{"beyond top", 250000, LevelTop, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Evaluate(decimal.NewFromInt(tt.revenue))

			if b.Level != tt.wantLevel {
				t.Errorf("expected level %s, got %s", tt.wantLevel, b.Level)
			}
			if b.ProgressToNextPct != tt.wantProgress {
				t.Errorf("expected progress %d, got %d", tt.wantProgress, b.ProgressToNextPct)
			}
			if !b.AmountToNext.Equal(decimal.NewFromInt(tt.wantToNext)) {
				t.Errorf("expected amount to next %d, got %s", tt.wantToNext, b.AmountToNext)
			}
		})
	}

	t.Run("top tier has no next label", func(t *testing.T) {
		if b := Evaluate(decimal.NewFromInt(100000)); b.NextLabel != "" {
			t.Errorf("expected no next label, got %q", b.NextLabel)
		}
	})

	t.Run("progress truncates", func(t *testing.T) {
		// 9995 / 10000 = 99.95% → 99
		if b := Evaluate(decimal.NewFromInt(9995)); b.ProgressToNextPct != 99 {
			t.Errorf("expected truncated 99, got %d", b.ProgressToNextPct)
		}
	})
}
