package handlers

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"

	"mise/internal/costing"
	"mise/internal/store"
	"mise/internal/views/pages"
)

// RecipeView serves the HTML views of a recipe: /app/recipes/{id}/cook and
// /app/recipes/{id}/card.
func RecipeView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	kitchenID, ok := currentKitchenID(r)
	if !ok || records == nil || database == nil {
		redirectToLogin(w, r)
		return
	}

	segments := pathSegments(r.URL.Path, "/app/recipes")
	if len(segments) != 2 {
		http.NotFound(w, r)
		return
	}

	switch segments[1] {
	case "cook":
		cookMode(w, r, kitchenID, segments[0])
	case "card":
		recipeCard(w, r, kitchenID, segments[0])
	default:
		http.NotFound(w, r)
	}
}

func writeViewError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	writeStoreError(w, r, err, "render recipe")
}

func cookMode(w http.ResponseWriter, r *http.Request, kitchenID, recipeID string) {
	snapshot, err := records.Snapshot(r.Context(), kitchenID, recipeID)
	if err != nil {
		writeViewError(w, r, err)
		return
	}
	recipe := snapshot.Recipe

	data := pages.CookModeData{
		RecipeID:   recipe.ID,
		RecipeName: recipe.Name,
		Portions:   recipe.EffectivePortions(),
		TotalSteps: len(recipe.Steps),
		Lines:      cardLines(snapshot, nil, recipe.Currency),
	}
	data.Step = pages.ClampStep(pages.ParseStep(r.URL.Query().Get("step")), data.TotalSteps)
	if data.Step > 0 {
		step := recipe.Steps[data.Step-1]
		data.Instruction = step.Instruction
		data.TimerSeconds = step.TimerSeconds
		if step.PhotoKey != "" {
			data.PhotoURL = objects.URL(step.PhotoKey)
		}
	}

	var component templ.Component
	if isHTMX(r) {
		component = pages.CookStep(data)
	} else {
		component = pages.CookMode(data)
	}
	renderComponent(w, r, component)
}

func recipeCard(w http.ResponseWriter, r *http.Request, kitchenID, recipeID string) {
	snapshot, result, err := loadCosting(r.Context(), kitchenID, recipeID)
	if err != nil {
		writeViewError(w, r, err)
		return
	}
	recipe := snapshot.Recipe
	currency := recipe.Currency
	target := costing.ClampTarget(costing.Coerce(recipe.TargetFoodCostPct, costing.DefaultTargetFoodCostPct))

	data := pages.RecipeCardData{
		Name:        recipe.Name,
		Category:    recipe.Category,
		Description: recipe.Description,
		Portions:    recipe.EffectivePortions(),
		Lines:       cardLines(snapshot, &result, currency),
		Summary: pages.CostSummary{
			TotalCost:       costing.FormatMoney(result.TotalCost, currency),
			CostPerPortion:  costing.FormatMoney(result.CostPerPortion, currency),
			FoodCostPercent: costing.FormatPercent(result.FoodCostPercent),
			Margin:          costing.FormatMoney(result.Margin, currency),
			MarginPercent:   costing.FormatPercent(result.MarginPercent),
			TargetPercent:   costing.FormatPercent(&target),
			SuggestedPrice:  costing.FormatMoney(result.SuggestedPrice, currency),
		},
		PrintedAt: nowFunc().Format("02 Jan 2006"),
	}
	if recipe.SellingPrice != nil {
		data.Summary.SellingPrice = costing.FormatMoney(*recipe.SellingPrice, currency)
	}
	if recipe.PhotoKey != "" {
		data.PhotoURL = objects.URL(recipe.PhotoKey)
	}
	for _, step := range recipe.Steps {
		data.Steps = append(data.Steps, step.Instruction)
	}
	for _, warning := range result.Warnings {
		data.Warnings = append(data.Warnings, warning.Detail)
	}
	renderComponent(w, r, pages.RecipeCard(data))
}

// cardLines prepares recipe lines for display. Costs are filled in when result is given.
func cardLines(snapshot *store.Snapshot, result *costing.Result, currency string) []pages.CardLine {
	costs := map[string]float64{}
	if result != nil {
		for _, breakdown := range result.Lines {
			costs[breakdown.LineID] = breakdown.Cost
		}
	}

	lines := make([]pages.CardLine, 0, len(snapshot.Recipe.Lines))
	for _, line := range snapshot.Recipe.Lines {
		if line.IsGroup() {
			lines = append(lines, pages.CardLine{Group: true, Title: line.Title})
			continue
		}
		card := pages.CardLine{
			Qty:        pages.FormatQty(line.Qty),
			Unit:       string(costing.Normalize(line.Unit)),
			Ingredient: ingredientName(snapshot, line),
			Note:       line.Note,
		}
		if result != nil {
			card.Cost = costing.FormatMoney(costs[line.ID], currency)
		}
		lines = append(lines, card)
	}
	return lines
}
