package tax

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Progressive computes a progressive income tax: each bracket taxes the
// slice of gross falling inside it at the bracket rate, the relief is
// subtracted from the raw tax, and the result is clipped at zero and rounded
// half up to the exponent.
func Progressive(gross decimal.Decimal, brackets []Bracket, relief decimal.Decimal, exponent int32) decimal.Decimal {
	raw := decimal.Zero
	for _, b := range brackets {
		if gross.LessThanOrEqual(b.Min) {
			break
		}
		upper := gross
		if b.Max != nil && upper.GreaterThan(*b.Max) {
			upper = *b.Max
		}
		slice := upper.Sub(b.Min)
		raw = raw.Add(slice.Mul(b.Rate).Div(hundred))
	}
	tax := raw.Sub(relief)
	if tax.IsNegative() {
		return decimal.Zero
	}
	return tax.Round(exponent)
}

// BracketedFlat returns the fixed contribution for the band covering gross.
// Bands are matched on their floor: the last band whose Min does not exceed
// gross wins. Published tables use integer bounds (... max 5999 / min 6000
// ...) while salaries are decimals, so a band's reach runs up to the next
// band's floor, and the top band is open-ended.
func BracketedFlat(gross decimal.Decimal, bands []FlatBand) decimal.Decimal {
	contribution := decimal.Zero
	for _, b := range bands {
		if gross.LessThan(b.Min) {
			break
		}
		contribution = b.Contribution
	}
	return contribution
}

// CappedPercentage returns gross x rate%, capped.
func CappedPercentage(gross, rate, cap decimal.Decimal, exponent int32) decimal.Decimal {
	amount := gross.Mul(rate).Div(hundred).Round(exponent)
	if amount.GreaterThan(cap) {
		return cap
	}
	return amount
}

// Withholding looks up the category rate and applies it. An unknown category
// withholds nothing; that fallback is deliberate, not an error.
func Withholding(amount decimal.Decimal, category string, rates map[string]decimal.Decimal, exponent int32) decimal.Decimal {
	rate, ok := rates[category]
	if !ok {
		return decimal.Zero
	}
	return amount.Mul(rate).Div(hundred).Round(exponent)
}
