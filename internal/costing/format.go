package costing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NotSet is displayed for percentages that cannot be computed yet.
const NotSet = "—"

// RoundPercent rounds a percentage to one decimal place for display.
func RoundPercent(pct *float64) *float64 {
	if pct == nil {
		return nil
	}
	rounded := decimal.NewFromFloat(Finite(*pct, 0)).Round(1).InexactFloat64()
	return &rounded
}

// FormatPercent renders a percentage with one decimal place, or NotSet for nil.
func FormatPercent(pct *float64) string {
	if pct == nil {
		return NotSet
	}
	return decimal.NewFromFloat(Finite(*pct, 0)).StringFixed(1) + "%"
}

// RoundMoney rounds an amount to cents.
func RoundMoney(amount float64) float64 {
	return decimal.NewFromFloat(Finite(amount, 0)).Round(2).InexactFloat64()
}

// FormatMoney renders an amount with two decimals followed by the currency code.
func FormatMoney(amount float64, currency string) string {
	value := decimal.NewFromFloat(Finite(amount, 0)).StringFixed(2)
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return value
	}
	return value + " " + currency
}
