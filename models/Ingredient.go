package models

// DefaultPackUnit is assumed when an ingredient does not declare the unit its cost is denominated in.
const DefaultPackUnit = "g"

// Ingredient is a purchasable item. NetUnitCost is the cost of one PackUnit after yield.
type Ingredient struct {
	Record
	KitchenID   string   `gorm:"type:varchar(36);index;not null" json:"kitchen_id"`
	Name        string   `gorm:"not null" json:"name"`
	Supplier    string   `json:"supplier"`
	Category    string   `json:"category"`
	PackUnit    string   `gorm:"type:varchar(32);not null;default:g" json:"pack_unit"`
	PackSize    *float64 `json:"pack_size,omitempty"`
	PackPrice   *float64 `json:"pack_price,omitempty"`
	YieldPct    float64  `gorm:"not null;default:100" json:"yield_pct"`
	NetUnitCost *float64 `json:"net_unit_cost"`
	Active      bool     `gorm:"not null;default:true" json:"active"`
	Notes       string   `gorm:"type:text" json:"notes"`
}

// EffectivePackUnit returns the pack unit, defaulting to grams.
func (i Ingredient) EffectivePackUnit() string {
	if i.PackUnit == "" {
		return DefaultPackUnit
	}
	return i.PackUnit
}
