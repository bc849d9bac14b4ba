package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// OutputPlaces is the number of decimal places kept in forecast output.
const OutputPlaces = 2

// Round2 rounds v to two decimal places, half away from zero, using the
// shortest decimal representation of v. NaN and infinities are returned as is.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(OutputPlaces).InexactFloat64()
}

// RoundValues applies Round2 to every variable.
func RoundValues(v Values) Values {
	var out Values
	for i := range v {
		out[i] = Round2(v[i])
	}
	return out
}

// FormatFixed renders v with exactly two decimal places, e.g. "20.00". It
// reports false for NaN and infinities, which have no decimal form.
func FormatFixed(v float64) (string, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	return decimal.NewFromFloat(v).StringFixed(OutputPlaces), true
}
