package models

// DefaultTargetFoodCostPct is the food-cost target applied when a recipe does not set one.
const DefaultTargetFoodCostPct = 30.0

type Recipe struct {
	Record
	KitchenID         string       `gorm:"type:varchar(36);index;not null" json:"kitchen_id"`
	Name              string       `gorm:"not null" json:"name"`
	Category          string       `json:"category"`
	Description       string       `gorm:"type:text" json:"description"`
	Portions          int          `gorm:"not null;default:1" json:"portions"`
	Currency          string       `gorm:"type:varchar(3);not null;default:USD" json:"currency"`
	TargetFoodCostPct *float64     `json:"target_food_cost_pct"`
	SellingPrice      *float64     `json:"selling_price"`
	Archived          bool         `gorm:"not null;default:false;index" json:"archived"`
	PhotoKey          string       `json:"photo_key"`
	Calories          *float64     `json:"calories,omitempty"`
	ProteinG          *float64     `json:"protein_g,omitempty"`
	CarbsG            *float64     `json:"carbs_g,omitempty"`
	FatG              *float64     `json:"fat_g,omitempty"`
	Lines             []RecipeLine `gorm:"foreignKey:RecipeID" json:"lines,omitempty"`
	Steps             []RecipeStep `gorm:"foreignKey:RecipeID" json:"steps,omitempty"`
}

// EffectivePortions never returns less than one so it is safe to divide by.
func (r Recipe) EffectivePortions() int {
	if r.Portions < 1 {
		return 1
	}
	return r.Portions
}
