package domain

import "github.com/shopspring/decimal"

// MoneyScale is the fixed number of fractional digits every monetary
// quantity in this system is quantized to (spec.md §3, §9: "fixed-point
// or arbitrary-precision decimal with explicit truncation at 6 fractional
// digits; binary floating-point is forbidden anywhere on the monetary
// path").
const MoneyScale = 6

// TruncateDown truncates d to MoneyScale fractional digits, rounding
// towards zero (never up). This is the only rounding mode used on the
// monetary path; spec.md §4.1 relies on truncation-always-down so that
// accumulated rounding error is non-negative and lands entirely on the
// treasury residual.
func TruncateDown(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(MoneyScale)
}

// FormatAmount renders a decimal as a string with exactly MoneyScale
// fractional digits, per spec.md §6 ("Decimals are always quoted strings
// at 6 fractional digits").
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}

// Zero is the canonical zero amount at the system's scale.
func Zero() decimal.Decimal {
	return decimal.Zero.Truncate(MoneyScale)
}
