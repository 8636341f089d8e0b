package models

// RecipeStep is one instruction shown in cook mode.
type RecipeStep struct {
	Record
	KitchenID    string `gorm:"type:varchar(36);index;not null" json:"kitchen_id"`
	RecipeID     string `gorm:"type:varchar(36);index;not null" json:"recipe_id"`
	Position     int    `gorm:"not null;default:0" json:"position"`
	Instruction  string `gorm:"type:text;not null" json:"instruction"`
	TimerSeconds int    `gorm:"not null;default:0" json:"timer_seconds"`
	PhotoKey     string `json:"photo_key"`
}
