package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mise/internal/costing"
	"mise/models"
)

// RecipeFilter narrows recipe listings. Archived recipes are only listed when Archived is set.
type RecipeFilter struct {
	Query    string
	Category string
	Archived bool
}

// RecipeInput carries create and partial update values. Nil fields are left unchanged.
type RecipeInput struct {
	Name              *string  `json:"name"`
	Category          *string  `json:"category"`
	Description       *string  `json:"description"`
	Portions          *int     `json:"portions"`
	Currency          *string  `json:"currency"`
	TargetFoodCostPct *float64 `json:"target_food_cost_pct"`
	SellingPrice      *float64 `json:"selling_price"`
	Calories          *float64 `json:"calories"`
	ProteinG          *float64 `json:"protein_g"`
	CarbsG            *float64 `json:"carbs_g"`
	FatG              *float64 `json:"fat_g"`
}

func (in RecipeInput) validate() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return invalid("name is required")
	}
	if in.Portions != nil && *in.Portions < 1 {
		return invalid("portions must be at least 1")
	}
	if t := in.TargetFoodCostPct; t != nil && (!finite(*t) || *t < 1 || *t > 99) {
		return invalid("target_food_cost_pct must be between 1 and 99")
	}
	if err := checkNonNegative("selling_price", in.SellingPrice); err != nil {
		return err
	}
	for _, nutrient := range []struct {
		field string
		value *float64
	}{
		{"calories", in.Calories},
		{"protein_g", in.ProteinG},
		{"carbs_g", in.CarbsG},
		{"fat_g", in.FatG},
	} {
		if err := checkNonNegative(nutrient.field, nutrient.value); err != nil {
			return err
		}
	}
	return nil
}

func preloadOrdered(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

// ListRecipes returns the kitchen's recipes ordered by name, without lines or steps.
func (s *Store) ListRecipes(ctx context.Context, kitchenID string, filter RecipeFilter) ([]models.Recipe, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	query := scoped(tx, kitchenID).Where("archived = ?", filter.Archived)
	if strings.TrimSpace(filter.Query) != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(filter.Query))
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(category))
	}

	var recipes []models.Recipe
	if err := query.Order("LOWER(name) ASC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// GetRecipe loads a recipe with its lines and steps in display order.
func (s *Store) GetRecipe(ctx context.Context, kitchenID, id string) (*models.Recipe, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	return getRecipe(preloadOrdered(tx), kitchenID, id)
}

func getRecipe(tx *gorm.DB, kitchenID, id string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := scoped(tx, kitchenID).Where("id = ?", id).First(&recipe).Error; err != nil {
		return nil, notFound("recipe", err)
	}
	return &recipe, nil
}

func recipeExists(tx *gorm.DB, kitchenID, id string) error {
	var count int64
	if err := scoped(tx.Model(&models.Recipe{}), kitchenID).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("load recipe: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("recipe: %w", ErrNotFound)
	}
	return nil
}

func kitchenCurrency(tx *gorm.DB, kitchenID string) string {
	var kitchen models.Kitchen
	if err := tx.Where("id = ?", kitchenID).First(&kitchen).Error; err != nil {
		return models.DefaultCurrency
	}
	return models.NormalizeCurrency(kitchen.Currency)
}

// CreateRecipe validates and stores a new recipe. Currency defaults to the kitchen's.
func (s *Store) CreateRecipe(ctx context.Context, kitchenID string, in RecipeInput) (*models.Recipe, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	if in.Name == nil {
		return nil, invalid("name is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		KitchenID:         kitchenID,
		Name:              strings.TrimSpace(*in.Name),
		Portions:          1,
		TargetFoodCostPct: in.TargetFoodCostPct,
		SellingPrice:      in.SellingPrice,
		Calories:          in.Calories,
		ProteinG:          in.ProteinG,
		CarbsG:            in.CarbsG,
		FatG:              in.FatG,
	}
	if in.Category != nil {
		recipe.Category = strings.TrimSpace(*in.Category)
	}
	if in.Description != nil {
		recipe.Description = strings.TrimSpace(*in.Description)
	}
	if in.Portions != nil {
		recipe.Portions = *in.Portions
	}
	if in.Currency != nil && strings.TrimSpace(*in.Currency) != "" {
		recipe.Currency = models.NormalizeCurrency(*in.Currency)
	} else {
		recipe.Currency = kitchenCurrency(tx, kitchenID)
	}
	if recipe.TargetFoodCostPct == nil {
		target := models.DefaultTargetFoodCostPct
		recipe.TargetFoodCostPct = &target
	}

	if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return &recipe, nil
}

// UpdateRecipe applies the non-nil fields of in.
func (s *Store) UpdateRecipe(ctx context.Context, kitchenID, id string, in RecipeInput) (*models.Recipe, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if in.Name != nil {
		changes["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		changes["category"] = strings.TrimSpace(*in.Category)
	}
	if in.Description != nil {
		changes["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Portions != nil {
		changes["portions"] = *in.Portions
	}
	if in.Currency != nil {
		changes["currency"] = models.NormalizeCurrency(*in.Currency)
	}
	if in.TargetFoodCostPct != nil {
		changes["target_food_cost_pct"] = *in.TargetFoodCostPct
	}
	if in.SellingPrice != nil {
		changes["selling_price"] = *in.SellingPrice
	}
	if in.Calories != nil {
		changes["calories"] = *in.Calories
	}
	if in.ProteinG != nil {
		changes["protein_g"] = *in.ProteinG
	}
	if in.CarbsG != nil {
		changes["carbs_g"] = *in.CarbsG
	}
	if in.FatG != nil {
		changes["fat_g"] = *in.FatG
	}

	return s.updateRecipe(tx, kitchenID, id, changes)
}

func (s *Store) updateRecipe(tx *gorm.DB, kitchenID, id string, changes map[string]any) (*models.Recipe, error) {
	if err := recipeExists(tx, kitchenID, id); err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		if err := scoped(tx.Model(&models.Recipe{}), kitchenID).Where("id = ?", id).Updates(changes).Error; err != nil {
			return nil, fmt.Errorf("update recipe: %w", err)
		}
	}
	return getRecipe(preloadOrdered(tx), kitchenID, id)
}

// ArchiveRecipe hides a recipe from the default listing.
func (s *Store) ArchiveRecipe(ctx context.Context, kitchenID, id string) (*models.Recipe, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	return s.updateRecipe(tx, kitchenID, id, map[string]any{"archived": true})
}

// UnarchiveRecipe restores an archived recipe.
func (s *Store) UnarchiveRecipe(ctx context.Context, kitchenID, id string) (*models.Recipe, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	return s.updateRecipe(tx, kitchenID, id, map[string]any{"archived": false})
}

// SetRecipePhoto records the object key of the recipe's cover photo.
func (s *Store) SetRecipePhoto(ctx context.Context, kitchenID, id, key string) (*models.Recipe, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	return s.updateRecipe(tx, kitchenID, id, map[string]any{"photo_key": key})
}

// ApplySellingPrice stores price, rounded to cents, as the recipe's selling price.
func (s *Store) ApplySellingPrice(ctx context.Context, kitchenID, id string, price float64) (*models.Recipe, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	if !finite(price) || price < 0 {
		return nil, invalid("selling price must be a number greater than or equal to zero")
	}
	return s.updateRecipe(tx, kitchenID, id, map[string]any{"selling_price": costing.RoundMoney(price)})
}

// DuplicateRecipe copies a recipe with its lines and steps under the next free
// "Name (Copy)" / "Name (Copy N)" name. The copy is never archived.
func (s *Store) DuplicateRecipe(ctx context.Context, kitchenID, id string) (*models.Recipe, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	var copyID string
	err = tx.Transaction(func(tx *gorm.DB) error {
		source, err := getRecipe(preloadOrdered(tx), kitchenID, id)
		if err != nil {
			return err
		}

		var names []string
		if err := scoped(tx.Model(&models.Recipe{}), kitchenID).Pluck("name", &names).Error; err != nil {
			return fmt.Errorf("list recipe names: %w", err)
		}

		duplicate := *source
		duplicate.Record = models.Record{}
		duplicate.Name = NextCopiedName(names, source.Name)
		duplicate.Archived = false
		duplicate.Lines = nil
		duplicate.Steps = nil
		if err := tx.Omit(clause.Associations).Create(&duplicate).Error; err != nil {
			return fmt.Errorf("create recipe copy: %w", err)
		}

		for _, line := range source.Lines {
			line.Record = models.Record{}
			line.RecipeID = duplicate.ID
			line.Ingredient = nil
			if err := tx.Omit(clause.Associations).Create(&line).Error; err != nil {
				return fmt.Errorf("copy recipe line: %w", err)
			}
		}
		for _, step := range source.Steps {
			step.Record = models.Record{}
			step.RecipeID = duplicate.ID
			if err := tx.Create(&step).Error; err != nil {
				return fmt.Errorf("copy recipe step: %w", err)
			}
		}

		copyID = duplicate.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return getRecipe(preloadOrdered(tx), kitchenID, copyID)
}

// NextCopiedName returns "base (Copy)", or "base (Copy N)" with the smallest N >= 2
// not already taken. Comparison ignores case.
func NextCopiedName(existing []string, base string) string {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "Untitled recipe"
	}

	used := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		used[strings.ToLower(name)] = struct{}{}
	}

	candidate := fmt.Sprintf("%s (Copy)", trimmed)
	if _, ok := used[strings.ToLower(candidate)]; !ok {
		return candidate
	}
	for i := 2; ; i++ {
		candidate = fmt.Sprintf("%s (Copy %d)", trimmed, i)
		if _, ok := used[strings.ToLower(candidate)]; !ok {
			return candidate
		}
	}
}
