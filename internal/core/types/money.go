// Package types provides common value types and monetary helpers.
package types

import (
	"math"

	"github.com/shopspring/decimal"
)

// Money is a monetary amount in whole Colombian pesos.
// Storage: int64 - freight amounts never carry centavos, so every sum in the
// system is normalized through RoundMoney before it is stored.
type Money = int64

// RoundMoney rounds a computed amount to whole pesos, half away from zero.
func RoundMoney(x float64) int64 {
	return int64(math.Round(x))
}

// PercentOf returns pct percent of base, rounded to whole pesos.
// Goes through decimal so factors like 0.01 stay exact regardless of base.
func PercentOf(base int64, pct float64) int64 {
	d := decimal.NewFromInt(base).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100))
	return d.Round(0).IntPart()
}

// PercentChange returns the rounded percentage change from previous to current.
//
// Zero handling is asymmetric on purpose:
//   - both zero        -> 0 (nothing changed)
//   - previous zero    -> 100 (anything appeared from nothing)
//   - otherwise        -> round((current-previous)/previous*100)
func PercentChange(current, previous int64) int64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return RoundMoney(float64(current-previous) / float64(previous) * 100)
}

// SafeDivide divides numerator by denominator, returning 0 when the
// denominator is 0. Callers round the result when they need whole pesos.
func SafeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// PerTripCost returns the average cost per paid trip, 0 when there were none.
func PerTripCost(totalPaid int64, paidTrips int) int64 {
	return RoundMoney(SafeDivide(float64(totalPaid), float64(paidTrips)))
}
