// Package costing computes recipe cost and pricing figures from an in-memory
// snapshot of recipe lines and the ingredient catalog.
//
// Nothing in this package returns an error. Invalid or missing inputs degrade to
// zero or nil so a cost preview can always be rendered while a recipe is being edited.
package costing

import (
	"math"
	"strings"
)

const (
	// DefaultTargetFoodCostPct applies when a recipe has no usable target.
	DefaultTargetFoodCostPct = 30.0
	minTargetFoodCostPct     = 1.0
	maxTargetFoodCostPct     = 99.0
)

// LineType distinguishes costed ingredient lines from display-only group headers.
type LineType string

const (
	LineIngredient LineType = "ingredient"
	LineGroup      LineType = "group"
)

// Ingredient is the costing view of a catalog item.
type Ingredient struct {
	ID          string
	KitchenID   string
	Name        string
	PackUnit    string
	NetUnitCost *float64
}

// Line is the costing view of a recipe line.
type Line struct {
	ID           string
	Type         LineType
	IngredientID string
	Qty          float64
	Unit         string
}

// Recipe holds the recipe fields the calculator reads. Portions is a float so
// that non-finite input can be represented and coerced.
type Recipe struct {
	Portions          float64
	SellingPrice      *float64
	TargetFoodCostPct *float64
	Currency          string
}

// Snapshot is a consistent view of one recipe taken for a single kitchen.
type Snapshot struct {
	KitchenID   string
	Recipe      Recipe
	Lines       []Line
	Ingredients map[string]Ingredient
}

// LineBreakdown explains how a single ingredient line was costed.
type LineBreakdown struct {
	LineID       string  `json:"line_id"`
	IngredientID string  `json:"ingredient_id,omitempty"`
	Qty          float64 `json:"qty"`
	Unit         string  `json:"unit"`
	PackUnit     string  `json:"pack_unit,omitempty"`
	ConvertedQty float64 `json:"converted_qty"`
	UnitCost     float64 `json:"unit_cost"`
	Cost         float64 `json:"cost"`
}

// Result carries unrounded cost and pricing figures. Percentages are nil when
// no selling price has been set.
type Result struct {
	TotalCost       float64         `json:"total_cost"`
	CostPerPortion  float64         `json:"cost_per_portion"`
	FoodCostPercent *float64        `json:"food_cost_percent"`
	Margin          float64         `json:"margin"`
	MarginPercent   *float64        `json:"margin_percent"`
	SuggestedPrice  float64         `json:"suggested_price"`
	Lines           []LineBreakdown `json:"lines"`
	Warnings        []Warning       `json:"warnings"`
}

// Finite returns v, or fallback when v is NaN or infinite.
func Finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// Coerce dereferences an optional value, substituting fallback for nil or non-finite input.
func Coerce(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return Finite(*v, fallback)
}

func nonNegative(v float64) float64 {
	v = Finite(v, 0)
	if v < 0 {
		return 0
	}
	return v
}

func packUnitOf(ingredient Ingredient) string {
	if strings.TrimSpace(ingredient.PackUnit) == "" {
		return string(DefaultUnit)
	}
	return ingredient.PackUnit
}

// LineCost returns the cost of one line. Group lines and lines without a
// resolved ingredient cost nothing.
func LineCost(line Line, ingredient *Ingredient) float64 {
	if line.Type == LineGroup || ingredient == nil {
		return 0
	}
	qty := Convert(nonNegative(line.Qty), line.Unit, packUnitOf(*ingredient))
	return qty * nonNegative(Coerce(ingredient.NetUnitCost, 0))
}

// TotalCost sums LineCost over the ingredient lines. Unknown ingredient ids cost nothing.
func TotalCost(lines []Line, ingredientsByID map[string]Ingredient) float64 {
	total := 0.0
	for _, line := range lines {
		if line.Type != LineIngredient {
			continue
		}
		total += LineCost(line, lookup(ingredientsByID, line.IngredientID))
	}
	return total
}

func lookup(ingredients map[string]Ingredient, id string) *Ingredient {
	if id == "" {
		return nil
	}
	ingredient, ok := ingredients[id]
	if !ok {
		return nil
	}
	return &ingredient
}

// CostPerPortion divides by max(1, portions), so it never divides by zero.
func CostPerPortion(totalCost, portions float64) float64 {
	return Finite(totalCost, 0) / math.Max(1, Finite(portions, 1))
}

// FoodCostPercent returns nil until a positive selling price exists.
func FoodCostPercent(costPerPortion, sellingPrice float64) *float64 {
	price := Finite(sellingPrice, 0)
	if price <= 0 {
		return nil
	}
	pct := Finite(costPerPortion, 0) / price * 100
	return &pct
}

// Margin may be negative; a negative margin is a valid warning state.
func Margin(sellingPrice, costPerPortion float64) float64 {
	return Finite(sellingPrice, 0) - Finite(costPerPortion, 0)
}

// MarginPercent returns nil until a positive selling price exists.
func MarginPercent(margin, sellingPrice float64) *float64 {
	price := Finite(sellingPrice, 0)
	if price <= 0 {
		return nil
	}
	pct := Finite(margin, 0) / price * 100
	return &pct
}

// ClampTarget bounds a food-cost target to [1, 99], using the default for non-finite input.
func ClampTarget(target float64) float64 {
	return math.Min(maxTargetFoodCostPct, math.Max(minTargetFoodCostPct, Finite(target, DefaultTargetFoodCostPct)))
}

// SuggestedPrice is the selling price at which the portion cost hits the target percentage.
func SuggestedPrice(costPerPortion, targetFoodCostPct float64) float64 {
	return Finite(costPerPortion, 0) / (ClampTarget(targetFoodCostPct) / 100)
}

// Calculate runs the whole costing pipeline over a snapshot. Ingredients owned
// by a different kitchen than the snapshot are treated as missing.
func Calculate(s Snapshot) Result {
	result := Result{
		Lines:    make([]LineBreakdown, 0, len(s.Lines)),
		Warnings: []Warning{},
	}

	for _, line := range s.Lines {
		if line.Type != LineIngredient {
			continue
		}

		breakdown := LineBreakdown{
			LineID:       line.ID,
			IngredientID: line.IngredientID,
			Qty:          nonNegative(line.Qty),
			Unit:         string(Normalize(line.Unit)),
		}

		ingredient := lookup(s.Ingredients, line.IngredientID)
		switch {
		case ingredient == nil:
			result.Warnings = append(result.Warnings, newWarning(WarningMissingIngredient, line))
		case s.KitchenID != "" && ingredient.KitchenID != "" && ingredient.KitchenID != s.KitchenID:
			result.Warnings = append(result.Warnings, newWarning(WarningForeignIngredient, line))
			ingredient = nil
		}
		if ingredient == nil {
			result.Lines = append(result.Lines, breakdown)
			continue
		}

		packUnit := packUnitOf(*ingredient)
		if !Normalize(line.Unit).Known() {
			result.Warnings = append(result.Warnings, newWarning(WarningUnknownUnit, line))
		}
		converted, ok := ConvertChecked(breakdown.Qty, line.Unit, packUnit)
		if !ok {
			result.Warnings = append(result.Warnings, unitMismatch(line, packUnit))
		}

		breakdown.PackUnit = string(Normalize(packUnit))
		breakdown.ConvertedQty = converted
		breakdown.UnitCost = nonNegative(Coerce(ingredient.NetUnitCost, 0))
		breakdown.Cost = LineCost(line, ingredient)
		result.TotalCost += breakdown.Cost
		result.Lines = append(result.Lines, breakdown)
	}

	price := Coerce(s.Recipe.SellingPrice, 0)
	result.CostPerPortion = CostPerPortion(result.TotalCost, s.Recipe.Portions)
	result.FoodCostPercent = FoodCostPercent(result.CostPerPortion, price)
	result.Margin = Margin(price, result.CostPerPortion)
	result.MarginPercent = MarginPercent(result.Margin, price)
	result.SuggestedPrice = SuggestedPrice(result.CostPerPortion, Coerce(s.Recipe.TargetFoodCostPct, DefaultTargetFoodCostPct))
	return result
}

// Scale returns copies of lines with ingredient quantities multiplied by
// toPortions/fromPortions. Both portion counts are floored at one.
func Scale(lines []Line, fromPortions, toPortions float64) []Line {
	factor := math.Max(1, Finite(toPortions, 1)) / math.Max(1, Finite(fromPortions, 1))
	scaled := make([]Line, len(lines))
	for i, line := range lines {
		scaled[i] = line
		if line.Type == LineIngredient {
			scaled[i].Qty = nonNegative(line.Qty) * factor
		}
	}
	return scaled
}
