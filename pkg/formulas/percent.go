// Package formulas holds the closed-form portfolio arithmetic used by every module.
package formulas

import (
	"math"

	"github.com/shopspring/decimal"
)

// PercentChange returns (current-reference)/reference*100.
// A missing (nil) or zero reference yields 0 rather than an error.
func PercentChange(current float64, reference *float64) float64 {
	if reference == nil || *reference == 0 {
		return 0
	}
	return (current - *reference) / *reference * 100
}

// PercentBelowHigh returns how far current sits below the 52-week high, in percent.
func PercentBelowHigh(current float64, high *float64) float64 {
	if high == nil || *high == 0 {
		return 0
	}
	return (*high - current) / *high * 100
}

// ChannelPosition returns where current sits inside the [low, high] channel (0 = low, 100 = high).
// When either bound is missing or high == low the position is 0.
func ChannelPosition(current float64, high, low *float64) float64 {
	if high == nil || low == nil || *high == 0 || *low == 0 || *high == *low {
		return 0
	}
	return (current - *low) / (*high - *low) * 100
}

// Share returns part/total*100, or 0 when total is not positive.
func Share(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}

// WeightedChange returns sum(values[i]/total * changes[i]).
// Slices must have equal length; mismatched input returns 0.
func WeightedChange(values, changes []float64) float64 {
	if len(values) != len(changes) {
		return 0
	}

	total := 0.0
	for _, v := range values {
		total += v
	}
	if total == 0 {
		return 0
	}

	weighted := 0.0
	for i, v := range values {
		weighted += v / total * changes[i]
	}
	return weighted
}

// Round rounds half away from zero to the given number of places.
// NaN and Inf collapse to 0 so they never reach a JSON encoder.
func Round(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

// Round2 rounds to two decimal places.
func Round2(value float64) float64 {
	return Round(value, 2)
}

// Round1 rounds to one decimal place.
func Round1(value float64) float64 {
	return Round(value, 1)
}

// Ptr returns a pointer to v. Handy for optional reference prices.
func Ptr(v float64) *float64 {
	return &v
}
