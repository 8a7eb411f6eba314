package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTruncateDownNeverRoundsUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.9999995", "1.999999"},
		{"0.0000009", "0.000000"},
		{"100.000000", "100.000000"},
	}
	for _, tt := range tests {
		got := TruncateDown(decimal.RequireFromString(tt.in))
		if FormatAmount(got) != tt.want {
			t.Errorf("TruncateDown(%s) = %s, want %s", tt.in, FormatAmount(got), tt.want)
		}
	}
}

func TestFormatAmountAlwaysSixDigits(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("5")); got != "5.000000" {
		t.Errorf("FormatAmount(5) = %s, want 5.000000", got)
	}
}
