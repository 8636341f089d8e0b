package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"mise/internal/costing"
	applog "mise/internal/log"
	"mise/internal/store"
	"mise/models"
)

type costingLine struct {
	costing.LineBreakdown
	IngredientName   string `json:"ingredient_name,omitempty"`
	IngredientActive bool   `json:"ingredient_active"`
}

type costingDisplay struct {
	TotalCost       string `json:"total_cost"`
	CostPerPortion  string `json:"cost_per_portion"`
	FoodCostPercent string `json:"food_cost_percent"`
	Margin          string `json:"margin"`
	MarginPercent   string `json:"margin_percent"`
	SuggestedPrice  string `json:"suggested_price"`
}

type costingResponse struct {
	RecipeID          string            `json:"recipe_id"`
	Currency          string            `json:"currency"`
	Portions          int               `json:"portions"`
	SellingPrice      *float64          `json:"selling_price"`
	TargetFoodCostPct float64           `json:"target_food_cost_pct"`
	TotalCost         float64           `json:"total_cost"`
	CostPerPortion    float64           `json:"cost_per_portion"`
	FoodCostPercent   *float64          `json:"food_cost_percent"`
	Margin            float64           `json:"margin"`
	MarginPercent     *float64          `json:"margin_percent"`
	SuggestedPrice    float64           `json:"suggested_price"`
	Lines             []costingLine     `json:"lines"`
	Warnings          []costing.Warning `json:"warnings"`
	Display           costingDisplay    `json:"display"`
}

type scaledLine struct {
	LineID         string  `json:"line_id"`
	LineType       string  `json:"line_type"`
	Title          string  `json:"title,omitempty"`
	IngredientID   string  `json:"ingredient_id,omitempty"`
	IngredientName string  `json:"ingredient_name,omitempty"`
	Qty            float64 `json:"qty"`
	Unit           string  `json:"unit,omitempty"`
	Note           string  `json:"note,omitempty"`
}

type scaleResponse struct {
	RecipeID     string          `json:"recipe_id"`
	FromPortions int             `json:"from_portions"`
	ToPortions   int             `json:"to_portions"`
	Lines        []scaledLine    `json:"lines"`
	Costing      costingResponse `json:"costing"`
}

// loadCosting snapshots the recipe and runs the calculator over it.
func loadCosting(ctx context.Context, kitchenID, recipeID string) (*store.Snapshot, costing.Result, error) {
	snapshot, err := records.Snapshot(ctx, kitchenID, recipeID)
	if err != nil {
		return nil, costing.Result{}, err
	}
	result := costing.Calculate(snapshot.Costing())
	logWarnings(ctx, recipeID, result.Warnings)
	return snapshot, result, nil
}

func logWarnings(ctx context.Context, recipeID string, warnings []costing.Warning) {
	for _, warning := range warnings {
		applog.Debug(ctx, "costing warning", "recipe", recipeID, "line", warning.LineID, "kind", string(warning.Kind), "detail", warning.Detail)
	}
}

func projectCosting(snapshot *store.Snapshot, result costing.Result, portions int) costingResponse {
	recipe := snapshot.Recipe
	currency := recipe.Currency

	lines := make([]costingLine, 0, len(result.Lines))
	for _, breakdown := range result.Lines {
		line := costingLine{LineBreakdown: breakdown}
		if ingredient, ok := snapshot.Ingredients[breakdown.IngredientID]; ok {
			line.IngredientName = ingredient.Name
			line.IngredientActive = ingredient.Active
		}
		lines = append(lines, line)
	}

	return costingResponse{
		RecipeID:          recipe.ID,
		Currency:          currency,
		Portions:          portions,
		SellingPrice:      recipe.SellingPrice,
		TargetFoodCostPct: costing.ClampTarget(costing.Coerce(recipe.TargetFoodCostPct, costing.DefaultTargetFoodCostPct)),
		TotalCost:         result.TotalCost,
		CostPerPortion:    result.CostPerPortion,
		FoodCostPercent:   result.FoodCostPercent,
		Margin:            result.Margin,
		MarginPercent:     result.MarginPercent,
		SuggestedPrice:    result.SuggestedPrice,
		Lines:             lines,
		Warnings:          result.Warnings,
		Display: costingDisplay{
			TotalCost:       costing.FormatMoney(result.TotalCost, currency),
			CostPerPortion:  costing.FormatMoney(result.CostPerPortion, currency),
			FoodCostPercent: costing.FormatPercent(result.FoodCostPercent),
			Margin:          costing.FormatMoney(result.Margin, currency),
			MarginPercent:   costing.FormatPercent(result.MarginPercent),
			SuggestedPrice:  costing.FormatMoney(result.SuggestedPrice, currency),
		},
	}
}

func showCosting(w http.ResponseWriter, r *http.Request, kitchenID, recipeID string) {
	snapshot, result, err := loadCosting(r.Context(), kitchenID, recipeID)
	if err != nil {
		writeStoreError(w, r, err, "calculate recipe cost")
		return
	}
	writeJSON(w, http.StatusOK, projectCosting(snapshot, result, snapshot.Recipe.EffectivePortions()))
}

// applySuggestedPrice stores the suggested price, rounded to cents, as the selling price.
func applySuggestedPrice(w http.ResponseWriter, r *http.Request, kitchenID, recipeID string) {
	_, result, err := loadCosting(r.Context(), kitchenID, recipeID)
	if err != nil {
		writeStoreError(w, r, err, "calculate recipe cost")
		return
	}

	if _, err := records.ApplySellingPrice(r.Context(), kitchenID, recipeID, result.SuggestedPrice); err != nil {
		writeStoreError(w, r, err, "apply suggested price")
		return
	}
	applog.Debug(r.Context(), "suggested price applied", "recipe", recipeID, "price", costing.RoundMoney(result.SuggestedPrice))

	snapshot, result, err := loadCosting(r.Context(), kitchenID, recipeID)
	if err != nil {
		writeStoreError(w, r, err, "calculate recipe cost")
		return
	}
	writeJSON(w, http.StatusOK, projectCosting(snapshot, result, snapshot.Recipe.EffectivePortions()))
}

// scaleRecipe returns line quantities and costing for ?portions=N without saving anything.
func scaleRecipe(w http.ResponseWriter, r *http.Request, kitchenID, recipeID string) {
	portions, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("portions")))
	if err != nil || portions < 1 {
		writeJSONError(w, http.StatusBadRequest, "portions must be a whole number of at least 1")
		return
	}

	snapshot, err := records.Snapshot(r.Context(), kitchenID, recipeID)
	if err != nil {
		writeStoreError(w, r, err, "scale recipe")
		return
	}

	scaledInput := snapshot.ScaledCosting(portions)
	result := costing.Calculate(scaledInput)
	logWarnings(r.Context(), recipeID, result.Warnings)

	writeJSON(w, http.StatusOK, scaleResponse{
		RecipeID:     recipeID,
		FromPortions: snapshot.Recipe.EffectivePortions(),
		ToPortions:   portions,
		Lines:        projectScaledLines(snapshot, scaledInput.Lines),
		Costing:      projectCosting(snapshot, result, portions),
	})
}

func projectScaledLines(snapshot *store.Snapshot, scaled []costing.Line) []scaledLine {
	lines := make([]scaledLine, 0, len(snapshot.Recipe.Lines))
	for i, line := range snapshot.Recipe.Lines {
		projected := scaledLine{
			LineID:   line.ID,
			LineType: line.LineType,
			Title:    line.Title,
			Unit:     line.Unit,
			Note:     line.Note,
		}
		if !line.IsGroup() {
			projected.Qty = scaled[i].Qty
			projected.IngredientID = scaled[i].IngredientID
			projected.IngredientName = ingredientName(snapshot, line)
		}
		lines = append(lines, projected)
	}
	return lines
}

func ingredientName(snapshot *store.Snapshot, line models.RecipeLine) string {
	if line.IngredientID == nil {
		return ""
	}
	if ingredient, ok := snapshot.Ingredients[*line.IngredientID]; ok {
		return ingredient.Name
	}
	return ""
}
