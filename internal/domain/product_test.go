package domain

import (
	"reflect"
	"testing"
)

func TestProduct_YearList(t *testing.T) {
	tests := []struct {
		name  string
		years string
		want  []int
	}{
		{"sorted list", "2016,2017,2018", []int{2016, 2017, 2018}},
		{"unsorted with spaces", " 2018, 2016 ,2017", []int{2016, 2017, 2018}},
		{"duplicates collapse", "2016,2016,2017", []int{2016, 2017}},
		{"junk dropped", "2016,abc,,2018", []int{2016, 2018}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{CompatibleYears: tt.years}
			if got := p.YearList(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("YearList() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProduct_YearRange(t *testing.T) {
	tests := []struct {
		name  string
		years string
		want  string
	}{
		{"range", "2016,2017,2018", "2016–2018"},
		{"single year", "2020", "2020"},
		{"no valid years", "n/a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{CompatibleYears: tt.years}
			if got := p.YearRange(); got != tt.want {
				t.Errorf("YearRange() = %q, want %q", got, tt.want)
			}
		})
	}
}
