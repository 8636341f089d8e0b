package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"mise/internal/costing"
	"mise/models"
)

// Snapshot is a consistent read of one recipe, its lines and steps, and every
// ingredient the lines reference, inactive ones included.
type Snapshot struct {
	KitchenID   string
	Recipe      models.Recipe
	Ingredients map[string]models.Ingredient
}

// Snapshot loads a recipe and its referenced ingredients inside one transaction.
// Ingredients of other kitchens are never loaded, so they cost as missing.
func (s *Store) Snapshot(ctx context.Context, kitchenID, recipeID string) (*Snapshot, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{KitchenID: kitchenID, Ingredients: map[string]models.Ingredient{}}
	err = tx.Transaction(func(tx *gorm.DB) error {
		recipe, err := getRecipe(preloadOrdered(tx), kitchenID, recipeID)
		if err != nil {
			return err
		}
		snapshot.Recipe = *recipe

		ids := make([]string, 0, len(recipe.Lines))
		for _, line := range recipe.Lines {
			if line.IngredientID != nil && *line.IngredientID != "" {
				ids = append(ids, *line.IngredientID)
			}
		}
		if len(ids) == 0 {
			return nil
		}

		var ingredients []models.Ingredient
		if err := scoped(tx, kitchenID).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
			return fmt.Errorf("load recipe ingredients: %w", err)
		}
		for _, ingredient := range ingredients {
			snapshot.Ingredients[ingredient.ID] = ingredient
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Costing converts the snapshot into calculator input.
func (s *Snapshot) Costing() costing.Snapshot {
	out := costing.Snapshot{
		KitchenID: s.KitchenID,
		Recipe: costing.Recipe{
			Portions:          float64(s.Recipe.Portions),
			SellingPrice:      s.Recipe.SellingPrice,
			TargetFoodCostPct: s.Recipe.TargetFoodCostPct,
			Currency:          s.Recipe.Currency,
		},
		Lines:       make([]costing.Line, 0, len(s.Recipe.Lines)),
		Ingredients: make(map[string]costing.Ingredient, len(s.Ingredients)),
	}
	for _, line := range s.Recipe.Lines {
		out.Lines = append(out.Lines, CostingLine(line))
	}
	for id, ingredient := range s.Ingredients {
		out.Ingredients[id] = CostingIngredient(ingredient)
	}
	return out
}

// ScaledCosting returns calculator input with quantities scaled to portions.
// The scaled recipe keeps its selling price per portion.
func (s *Snapshot) ScaledCosting(portions int) costing.Snapshot {
	snapshot := s.Costing()
	snapshot.Lines = costing.Scale(snapshot.Lines, snapshot.Recipe.Portions, float64(portions))
	snapshot.Recipe.Portions = float64(portions)
	return snapshot
}

// CostingLine converts a persisted line into calculator input.
func CostingLine(line models.RecipeLine) costing.Line {
	out := costing.Line{
		ID:   line.ID,
		Type: costing.LineIngredient,
		Qty:  line.Qty,
		Unit: line.Unit,
	}
	if line.IsGroup() {
		out.Type = costing.LineGroup
	}
	if line.IngredientID != nil {
		out.IngredientID = *line.IngredientID
	}
	return out
}

// CostingIngredient converts a persisted ingredient into calculator input.
func CostingIngredient(ingredient models.Ingredient) costing.Ingredient {
	return costing.Ingredient{
		ID:          ingredient.ID,
		KitchenID:   ingredient.KitchenID,
		Name:        ingredient.Name,
		PackUnit:    ingredient.EffectivePackUnit(),
		NetUnitCost: ingredient.NetUnitCost,
	}
}
