package extract

import "math"

// DiscountFactor encodes the fixed 20% contractual discount applied to the
// unit price before billing. This is intentional business logic.
const DiscountFactor = 0.8

// FallbackTotal is the amount used when the inputs needed to derive the
// total are missing. Inherited behavior; see the derivation tests before
// changing it.
const FallbackTotal = 100.00

// DeriveTotal computes the bill total from the unit price and consumption.
// Both inputs must be present; otherwise the fallback amount is returned so
// the record survives extraction gaps.
func DeriveTotal(price Field[float64], kwh Field[int]) float64 {
	if !price.Present || !kwh.Present {
		return FallbackTotal
	}
	return math.Round(price.Value*DiscountFactor*float64(kwh.Value)*100) / 100
}
