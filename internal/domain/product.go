package domain

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID              string          `json:"id"`
	SellerID        string          `json:"seller_id"`
	Name            string          `json:"name"`
	Brand           string          `json:"brand"`
	Model           string          `json:"model"`
	CompatibleYears string          `json:"compatible_years"`
	Price           decimal.Decimal `json:"price"`
	Stock           int             `json:"stock"`
}

// YearList parses the comma-separated compatible_years field, dropping
// anything that is not a number.
func (p *Product) YearList() []int {
	seen := make(map[int]bool)
	var years []int
	for _, part := range strings.Split(p.CompatibleYears, ",") {
		y, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || seen[y] {
			continue
		}
		seen[y] = true
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// YearRange collapses the compatible years into a display string, either a
// single year or "first–last". Empty when no valid years are listed.
func (p *Product) YearRange() string {
	years := p.YearList()
	switch len(years) {
	case 0:
		return ""
	case 1:
		return strconv.Itoa(years[0])
	default:
		return strconv.Itoa(years[0]) + "–" + strconv.Itoa(years[len(years)-1])
	}
}
