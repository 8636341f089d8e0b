package handlers

import (
	"net/http"

	"github.com/a-h/templ"

	"mise/internal/costing"
	applog "mise/internal/log"
	"mise/internal/store"
	"mise/internal/views/components"
	"mise/internal/views/pages"
)

// Dashboard renders the recipe index with a costing summary per recipe.
func Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	kitchenID, ok := currentKitchenID(r)
	if !ok || records == nil || database == nil {
		redirectToLogin(w, r)
		return
	}

	filters := pages.RecipeFiltersFromRequest(r)
	data := pages.RecipeIndexData{
		Filters: filters,
		Nav: components.NavData{
			Active: "recipes",
			Links:  components.DefaultNavLinks(),
		},
	}
	data.Nav.UserName, _ = sessionString(r, sessionUserNameKey)
	data.Nav.KitchenName = kitchenName(r)

	recipes, err := records.ListRecipes(r.Context(), kitchenID, store.RecipeFilter{
		Query:    filters.Query,
		Category: filters.Category,
		Archived: filters.Archived,
	})
	if err != nil {
		applog.Error(r.Context(), "failed to load recipe index", "error", err)
		data.Message = "We couldn't load your recipes right now."
	}
	for _, recipe := range recipes {
		row, err := recipeRow(r, kitchenID, recipe.ID)
		if err != nil {
			applog.Error(r.Context(), "failed to cost recipe for index", "recipe", recipe.ID, "error", err)
			continue
		}
		data.Recipes = append(data.Recipes, row)
	}

	var component templ.Component
	if isHTMX(r) {
		component = pages.RecipeIndexPartial(data)
	} else {
		component = pages.RecipeIndex(data)
	}
	renderComponent(w, r, component)
}

func recipeRow(r *http.Request, kitchenID, recipeID string) (pages.RecipeRow, error) {
	snapshot, result, err := loadCosting(r.Context(), kitchenID, recipeID)
	if err != nil {
		return pages.RecipeRow{}, err
	}
	recipe := snapshot.Recipe
	row := pages.RecipeRow{
		ID:              recipe.ID,
		Name:            recipe.Name,
		Category:        recipe.Category,
		Portions:        recipe.EffectivePortions(),
		CostPerPortion:  costing.FormatMoney(result.CostPerPortion, recipe.Currency),
		FoodCostPercent: costing.FormatPercent(result.FoodCostPercent),
		Archived:        recipe.Archived,
	}
	if recipe.SellingPrice != nil {
		row.SellingPrice = costing.FormatMoney(*recipe.SellingPrice, recipe.Currency)
	}
	target := costing.ClampTarget(costing.Coerce(recipe.TargetFoodCostPct, costing.DefaultTargetFoodCostPct))
	row.OverTarget = result.FoodCostPercent != nil && *result.FoodCostPercent > target
	return row, nil
}
