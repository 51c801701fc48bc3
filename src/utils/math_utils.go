package utils

import "math"

// RoundFloat rounds a float64 to a specified number of decimal places,
// half away from zero (half-up for the positive amounts handled here).
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// RoundMoney rounds a monetary value to 2 decimal places. The reconciliation
// formulas apply this after every arithmetic step, not just at output;
// deferring it changes final totals by up to a cent.
func RoundMoney(val float64) float64 {
	return RoundFloat(val, 2)
}
