package models

const (
	LineTypeIngredient = "ingredient"
	LineTypeGroup      = "group"
)

// SortGap is the distance left between consecutive sort positions so rows can be
// inserted without renumbering the whole recipe.
const SortGap = 10

type RecipeLine struct {
	Record
	KitchenID string `gorm:"type:varchar(36);index;not null" json:"kitchen_id"`
	RecipeID  string `gorm:"type:varchar(36);index;not null" json:"recipe_id"`
	LineType  string `gorm:"type:varchar(16);not null;default:ingredient" json:"line_type"`
	SortOrder int    `gorm:"not null;default:0" json:"sort_order"`

	// Ingredient lines. The reference is weak: removing the ingredient leaves the line in place.
	IngredientID *string     `gorm:"type:varchar(36);index" json:"ingredient_id,omitempty"`
	Qty          float64     `json:"qty"`
	Unit         string      `gorm:"type:varchar(32)" json:"unit"`
	Note         string      `json:"note"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`

	// Group lines.
	Title string `json:"title"`
}

// IsGroup reports whether the line is a display-only group header.
func (l RecipeLine) IsGroup() bool {
	return l.LineType == LineTypeGroup
}
