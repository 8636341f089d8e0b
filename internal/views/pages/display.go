// Package pages renders full pages and HTMX partials for the kitchen app.
package pages

import (
	"fmt"
	"strconv"
	"strings"

	"mise/internal/costing"
)

// DefaultDash returns the not-set marker when value is empty or whitespace.
func DefaultDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return costing.NotSet
	}
	return value
}

// FormatQty renders a quantity with at most two decimals and no trailing zeros.
func FormatQty(qty float64) string {
	formatted := strconv.FormatFloat(costing.Finite(qty, 0), 'f', 2, 64)
	formatted = strings.TrimRight(strings.TrimRight(formatted, "0"), ".")
	if formatted == "" || formatted == "-0" {
		return "0"
	}
	return formatted
}

// FormatTimer renders a step timer as m:ss, or an empty string for no timer.
func FormatTimer(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// PortionsLabel renders "1 portion" or "N portions".
func PortionsLabel(portions int) string {
	if portions == 1 {
		return "1 portion"
	}
	return fmt.Sprintf("%d portions", portions)
}
