package pages

import (
	"net/url"

	"mise/internal/views/components"
)

const recipesTitle = "Recipes · Mise"

// RecipeRow is one recipe in the index with its costing summary.
type RecipeRow struct {
	ID              string
	Name            string
	Category        string
	Portions        int
	SellingPrice    string
	CostPerPortion  string
	FoodCostPercent string
	OverTarget      bool
	Archived        bool
}

func (r RecipeRow) state() string {
	if r.OverTarget {
		return "over-target"
	}
	return "ok"
}

// RecipeIndexData drives the signed-in landing page.
type RecipeIndexData struct {
	Nav     components.NavData
	Filters RecipeFilters
	Message string
	Recipes []RecipeRow
}

// recipePath links to one of a recipe's pages, such as "cook" or "card".
func recipePath(recipeID, view string) string {
	return "/app/recipes/" + url.PathEscape(recipeID) + "/" + view
}
