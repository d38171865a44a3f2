package conversion

import (
	"math"
	"math/big"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Fraction digits used by Format.
const (
	// wholeFractionDigits applies to results of one or more.
	wholeFractionDigits = 2

	// smallFractionDigits applies to results below one, so that values such
	// as a square foot expressed in hectares stay visible.
	smallFractionDigits = 6
)

// displayLocale fixes grouping and decimal marks to en-US.
var displayLocale = language.AmericanEnglish

// Format renders a converted value using en-US conventions: thousands
// grouped with commas, a period as decimal point, exactly two fraction
// digits when v >= 1 and exactly six otherwise. Ties round away from zero.
// A result that rounds to zero prints without a sign.
//
// Example:
//
//	Format(43560.0385) // "43,560.04"
//	Format(1.125)      // "1.13"
//	Format(0.5)        // "0.500000"
func Format(v float64) string {
	digits := smallFractionDigits
	if v >= 1 {
		digits = wholeFractionDigits
	}

	rounded := roundHalfAway(v, digits)
	return message.NewPrinter(displayLocale).Sprint(number.Decimal(rounded,
		number.MinFractionDigits(digits),
		number.MaxFractionDigits(digits),
	))
}

// roundHalfAway rounds v to digits fraction digits, deciding ties on the
// exact binary value: 1.125 becomes 1.13, while 2.675, stored just below
// 2.675, becomes 2.67. Non-finite values are returned unchanged.
func roundHalfAway(v float64, digits int) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	scaled := new(big.Rat).SetFloat64(math.Abs(v))
	scaled.Mul(scaled, new(big.Rat).SetInt(scale))

	q, rem := new(big.Int).QuoRem(scaled.Num(), scaled.Denom(), new(big.Int))
	if rem.Lsh(rem, 1).Cmp(scaled.Denom()) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	if q.Sign() == 0 {
		return 0
	}

	out, _ := new(big.Rat).SetFrac(q, scale).Float64()
	return math.Copysign(out, v)
}
