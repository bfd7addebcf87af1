package progress

import (
	"math"

	"github.com/shopspring/decimal"
)

// round1 rounds to one decimal place, half away from zero.
// Going through decimal keeps values such as 85.05 (stored as 85.04999...) rounding up.
func round1(v float64) float64 {
	if v = finiteOrZero(v); v == 0 {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}

// mean is 0 for an empty group or a sum that overflowed.
func mean(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return finiteOrZero(sum / float64(count))
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
