package models

import "strings"

// DefaultCurrency is used when neither the recipe nor its kitchen names a currency.
const DefaultCurrency = "USD"

// Kitchen is the tenant that owns ingredients, recipes and users.
type Kitchen struct {
	Record
	Name     string `gorm:"not null" json:"name"`
	Currency string `gorm:"type:varchar(3);not null;default:USD" json:"currency"`
}

// NormalizeCurrency upper-cases a three letter ISO code and falls back to DefaultCurrency.
func NormalizeCurrency(code string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if len(trimmed) != 3 {
		return DefaultCurrency
	}
	for _, r := range trimmed {
		if r < 'A' || r > 'Z' {
			return DefaultCurrency
		}
	}
	return trimmed
}
