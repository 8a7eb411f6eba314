package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func int64Ptr(v int64) *int64 { return &v }

func TestSplit(t *testing.T) {
	full := Lineage{int64Ptr(3), int64Ptr(2), int64Ptr(1)}
	partial := Lineage{int64Ptr(2), nil, nil}
	none := Lineage{}

	tests := []struct {
		name     string
		fee      string
		lineage  Lineage
		cashback string
		l1       string
		l2       string
		l3       string
		treasury string
	}{
		{
			name:     "S1 full lineage",
			fee:      "200.000000",
			lineage:  full,
			cashback: "20.000000",
			l1:       "60.000000",
			l2:       "6.000000",
			l3:       "4.000000",
			treasury: "110.000000",
		},
		{
			name:     "S2 partial lineage",
			fee:      "200.000000",
			lineage:  partial,
			cashback: "20.000000",
			l1:       "60.000000",
			l2:       "0.000000",
			l3:       "0.000000",
			treasury: "120.000000",
		},
		{
			name:     "S3 tiny fee rounding",
			fee:      "0.010000",
			lineage:  full,
			cashback: "0.001000",
			l1:       "0.003000",
			l2:       "0.000300",
			l3:       "0.000200",
			treasury: "0.005500",
		},
		{
			name:     "no lineage at all",
			fee:      "10.000000",
			lineage:  none,
			cashback: "1.000000",
			l1:       "0.000000",
			l2:       "0.000000",
			l3:       "0.000000",
			treasury: "9.000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee := decimal.RequireFromString(tt.fee)
			splits := Split(fee, tt.lineage)

			assertAmount(t, "cashback", splits.Cashback, tt.cashback)
			assertAmount(t, "l1", splits.L1, tt.l1)
			assertAmount(t, "l2", splits.L2, tt.l2)
			assertAmount(t, "l3", splits.L3, tt.l3)
			assertAmount(t, "treasury", splits.Treasury, tt.treasury)

			sum := splits.Cashback.Add(splits.L1).Add(splits.L2).Add(splits.L3).Add(splits.Treasury)
			if !sum.Equal(fee) {
				t.Errorf("conservation violated: sum=%s fee=%s", sum, fee)
			}
		})
	}
}

func assertAmount(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if FormatAmount(got) != want {
		t.Errorf("%s = %s, want %s", label, FormatAmount(got), want)
	}
}

func TestSplitConservationProperty(t *testing.T) {
	fees := []string{"0.000001", "1.000001", "999999.999999", "33.333333"}
	lineages := []Lineage{
		{},
		{int64Ptr(1)},
		{int64Ptr(1), int64Ptr(2)},
		{int64Ptr(1), int64Ptr(2), int64Ptr(3)},
	}

	for _, feeStr := range fees {
		fee := decimal.RequireFromString(feeStr)
		for _, lineage := range lineages {
			splits := Split(fee, lineage)
			sum := splits.Cashback.Add(splits.L1).Add(splits.L2).Add(splits.L3).Add(splits.Treasury)
			if !sum.Equal(fee) {
				t.Errorf("fee=%s lineage=%v: sum=%s != fee", feeStr, lineage, sum)
			}
			if splits.Treasury.IsNegative() {
				t.Errorf("fee=%s lineage=%v: treasury went negative: %s", feeStr, lineage, splits.Treasury)
			}
		}
	}
}
