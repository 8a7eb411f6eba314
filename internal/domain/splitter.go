package domain

import "github.com/shopspring/decimal"

// Kind of accrual entry/ledger row, per spec.md §3.
type AccrualKind string

const (
	AccrualCashback     AccrualKind = "cashback"
	AccrualCommissionL1 AccrualKind = "commission_l1"
	AccrualCommissionL2 AccrualKind = "commission_l2"
	AccrualCommissionL3 AccrualKind = "commission_l3"
	AccrualTreasury     AccrualKind = "treasury"
)

// KnownKinds lists the five kinds the earnings aggregator always
// zero-fills, in the order the HTTP surface renders them.
var KnownKinds = []AccrualKind{
	AccrualCashback,
	AccrualCommissionL1,
	AccrualCommissionL2,
	AccrualCommissionL3,
	AccrualTreasury,
}

// ClaimableKinds are the kinds a claim may move from accrued to claimed.
// Treasury is deliberately excluded (spec.md §4.6).
var ClaimableKinds = []AccrualKind{
	AccrualCashback,
	AccrualCommissionL1,
	AccrualCommissionL2,
	AccrualCommissionL3,
}

// cashbackRate and the per-level commission rates from spec.md §4.1.
var (
	cashbackRate = decimal.RequireFromString("0.10")
	level1Rate   = decimal.RequireFromString("0.30")
	level2Rate   = decimal.RequireFromString("0.03")
	level3Rate   = decimal.RequireFromString("0.02")
)

// Splits is the output of the fee splitter: one amount per kind.
type Splits struct {
	Cashback decimal.Decimal
	L1       decimal.Decimal
	L2       decimal.Decimal
	L3       decimal.Decimal
	Treasury decimal.Decimal
}

// Lineage is the fixed-length (3) vector of ancestor ids nearest-first,
// with nil standing in for "absent" past the root. Only presence, not
// identity, matters to the splitter (spec.md §4.1); the identities are
// used by the accrual engine to address the payouts.
type Lineage [3]*int64

// Present reports whether the ancestor at position i (0-indexed, L1=0)
// exists.
func (l Lineage) Present(i int) bool {
	return l[i] != nil
}

// Split computes the fee decomposition for a trade. fee must already be
// non-negative and quantized to MoneyScale; Split truncates every
// intermediate term down to MoneyScale before composing the residual, so
// that conservation (cashback+l1+l2+l3+treasury == fee) holds bit-for-bit
// per spec.md §4.1's invariant.
func Split(fee decimal.Decimal, lineage Lineage) Splits {
	cashback := TruncateDown(fee.Mul(cashbackRate))

	l1 := Zero()
	if lineage.Present(0) {
		l1 = TruncateDown(fee.Mul(level1Rate))
	}
	l2 := Zero()
	if lineage.Present(1) {
		l2 = TruncateDown(fee.Mul(level2Rate))
	}
	l3 := Zero()
	if lineage.Present(2) {
		l3 = TruncateDown(fee.Mul(level3Rate))
	}

	treasury := TruncateDown(fee.Sub(cashback).Sub(l1).Sub(l2).Sub(l3))

	return Splits{
		Cashback: cashback,
		L1:       l1,
		L2:       l2,
		L3:       l3,
		Treasury: treasury,
	}
}

// Amount returns the split amount for a given kind, or zero for a kind
// outside KnownKinds.
func (s Splits) Amount(kind AccrualKind) decimal.Decimal {
	switch kind {
	case AccrualCashback:
		return s.Cashback
	case AccrualCommissionL1:
		return s.L1
	case AccrualCommissionL2:
		return s.L2
	case AccrualCommissionL3:
		return s.L3
	case AccrualTreasury:
		return s.Treasury
	default:
		return Zero()
	}
}
