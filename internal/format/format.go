// Package format renders prices and market figures for display.
package format

import (
	"github.com/shopspring/decimal"
)

var (
	billion  = decimal.NewFromInt(1_000_000_000)
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
	cent     = decimal.NewFromFloat(0.01)
)

// Number abbreviates large values with B/M/K suffixes and shows six
// decimals for values under 0.01.
func Number(v float64) string {
	d := decimal.NewFromFloat(v)
	switch {
	case d.GreaterThanOrEqual(billion):
		return d.Div(billion).StringFixed(2) + "B"
	case d.GreaterThanOrEqual(million):
		return d.Div(million).StringFixed(2) + "M"
	case d.GreaterThanOrEqual(thousand):
		return d.Div(thousand).StringFixed(2) + "K"
	case d.LessThan(cent):
		return d.StringFixed(6)
	}
	return d.StringFixed(2)
}

// Percentage renders v with two decimals and a % sign.
func Percentage(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// SignedPercentage is Percentage with an explicit + for gains.
func SignedPercentage(v float64) string {
	if v > 0 {
		return "+" + Percentage(v)
	}
	return Percentage(v)
}

// Price renders a dollar price, with six decimals under one cent.
func Price(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.LessThan(cent) {
		return "$" + d.StringFixed(6)
	}
	return "$" + d.StringFixed(2)
}
