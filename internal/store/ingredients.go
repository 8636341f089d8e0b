package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"mise/internal/costing"
	"mise/models"
)

// IngredientFilter narrows ingredient listings. A nil Active lists both states.
type IngredientFilter struct {
	Query    string
	Category string
	Active   *bool
}

// IngredientInput carries create and partial update values. Nil fields are left unchanged.
type IngredientInput struct {
	Name        *string  `json:"name"`
	Supplier    *string  `json:"supplier"`
	Category    *string  `json:"category"`
	PackUnit    *string  `json:"pack_unit"`
	PackSize    *float64 `json:"pack_size"`
	PackPrice   *float64 `json:"pack_price"`
	YieldPct    *float64 `json:"yield_pct"`
	NetUnitCost *float64 `json:"net_unit_cost"`
	Notes       *string  `json:"notes"`
}

func (in IngredientInput) validate() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return invalid("name is required")
	}
	if err := checkNonNegative("pack_size", in.PackSize); err != nil {
		return err
	}
	if err := checkNonNegative("pack_price", in.PackPrice); err != nil {
		return err
	}
	if err := checkNonNegative("net_unit_cost", in.NetUnitCost); err != nil {
		return err
	}
	if in.YieldPct != nil && (!finite(*in.YieldPct) || *in.YieldPct < 1 || *in.YieldPct > 100) {
		return invalid("yield_pct must be between 1 and 100")
	}
	return nil
}

// derivesCost reports whether the pack fields should recompute the net unit cost.
func (in IngredientInput) derivesCost() bool {
	return in.NetUnitCost == nil && (in.PackSize != nil || in.PackPrice != nil || in.YieldPct != nil)
}

// DeriveNetUnitCost returns pack_price / pack_size adjusted for yield, or nil
// when the pack figures are incomplete.
func DeriveNetUnitCost(packSize, packPrice *float64, yieldPct float64) *float64 {
	if packSize == nil || packPrice == nil || *packSize <= 0 || *packPrice <= 0 {
		return nil
	}
	if !finite(yieldPct) || yieldPct <= 0 || yieldPct > 100 {
		yieldPct = 100
	}
	cost := *packPrice / *packSize / (yieldPct / 100)
	return &cost
}

func normalizedPackUnit(unit string) string {
	return string(costing.Normalize(unit))
}

// ListIngredients returns the kitchen's ingredients ordered by name.
func (s *Store) ListIngredients(ctx context.Context, kitchenID string, filter IngredientFilter) ([]models.Ingredient, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	query := scoped(tx, kitchenID)
	if strings.TrimSpace(filter.Query) != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(filter.Query))
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}

	var ingredients []models.Ingredient
	if err := query.Order("LOWER(name) ASC").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient loads one ingredient, active or not.
func (s *Store) GetIngredient(ctx context.Context, kitchenID, id string) (*models.Ingredient, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	return getIngredient(tx, kitchenID, id)
}

func getIngredient(tx *gorm.DB, kitchenID, id string) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := scoped(tx, kitchenID).Where("id = ?", id).First(&ingredient).Error; err != nil {
		return nil, notFound("ingredient", err)
	}
	return &ingredient, nil
}

// CreateIngredient validates and stores a new active ingredient.
func (s *Store) CreateIngredient(ctx context.Context, kitchenID string, in IngredientInput) (*models.Ingredient, error) {
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

	ingredient := models.Ingredient{
		KitchenID:   kitchenID,
		Name:        strings.TrimSpace(*in.Name),
		PackUnit:    models.DefaultPackUnit,
		PackSize:    in.PackSize,
		PackPrice:   in.PackPrice,
		YieldPct:    100,
		NetUnitCost: in.NetUnitCost,
		Active:      true,
	}
	if in.Supplier != nil {
		ingredient.Supplier = strings.TrimSpace(*in.Supplier)
	}
	if in.Category != nil {
		ingredient.Category = strings.TrimSpace(*in.Category)
	}
	if in.PackUnit != nil {
		ingredient.PackUnit = normalizedPackUnit(*in.PackUnit)
	}
	if in.YieldPct != nil {
		ingredient.YieldPct = *in.YieldPct
	}
	if in.Notes != nil {
		ingredient.Notes = strings.TrimSpace(*in.Notes)
	}
	if ingredient.NetUnitCost == nil {
		ingredient.NetUnitCost = DeriveNetUnitCost(ingredient.PackSize, ingredient.PackPrice, ingredient.YieldPct)
	}

	if err := tx.Create(&ingredient).Error; err != nil {
		return nil, fmt.Errorf("create ingredient: %w", err)
	}
	return &ingredient, nil
}

// UpdateIngredient applies the non-nil fields of in.
func (s *Store) UpdateIngredient(ctx context.Context, kitchenID, id string, in IngredientInput) (*models.Ingredient, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated *models.Ingredient
	err = tx.Transaction(func(tx *gorm.DB) error {
		existing, err := getIngredient(tx, kitchenID, id)
		if err != nil {
			return err
		}

		changes := map[string]any{}
		if in.Name != nil {
			changes["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Supplier != nil {
			changes["supplier"] = strings.TrimSpace(*in.Supplier)
		}
		if in.Category != nil {
			changes["category"] = strings.TrimSpace(*in.Category)
		}
		if in.PackUnit != nil {
			changes["pack_unit"] = normalizedPackUnit(*in.PackUnit)
		}
		if in.PackSize != nil {
			changes["pack_size"] = *in.PackSize
			existing.PackSize = in.PackSize
		}
		if in.PackPrice != nil {
			changes["pack_price"] = *in.PackPrice
			existing.PackPrice = in.PackPrice
		}
		if in.YieldPct != nil {
			changes["yield_pct"] = *in.YieldPct
			existing.YieldPct = *in.YieldPct
		}
		if in.NetUnitCost != nil {
			changes["net_unit_cost"] = *in.NetUnitCost
		} else if in.derivesCost() {
			if derived := DeriveNetUnitCost(existing.PackSize, existing.PackPrice, existing.YieldPct); derived != nil {
				changes["net_unit_cost"] = *derived
			}
		}
		if in.Notes != nil {
			changes["notes"] = strings.TrimSpace(*in.Notes)
		}

		if len(changes) > 0 {
			if err := scoped(tx.Model(&models.Ingredient{}), kitchenID).Where("id = ?", id).Updates(changes).Error; err != nil {
				return fmt.Errorf("update ingredient: %w", err)
			}
		}

		updated, err = getIngredient(tx, kitchenID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeactivateIngredient hides an ingredient from pickers. Ingredients are never hard-deleted
// so existing recipe lines keep their cost.
func (s *Store) DeactivateIngredient(ctx context.Context, kitchenID, id string) (*models.Ingredient, error) {
	return s.setIngredientActive(ctx, kitchenID, id, false)
}

// ReactivateIngredient makes a deactivated ingredient selectable again.
func (s *Store) ReactivateIngredient(ctx context.Context, kitchenID, id string) (*models.Ingredient, error) {
	return s.setIngredientActive(ctx, kitchenID, id, true)
}

func (s *Store) setIngredientActive(ctx context.Context, kitchenID, id string, active bool) (*models.Ingredient, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	result := scoped(tx.Model(&models.Ingredient{}), kitchenID).Where("id = ?", id).Update("active", active)
	if result.Error != nil {
		return nil, fmt.Errorf("update ingredient state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("ingredient: %w", ErrNotFound)
	}
	return getIngredient(tx, kitchenID, id)
}

// UpsertIngredientByName creates the ingredient or updates the one with the same
// case-insensitive name. It reports whether a new row was created.
func (s *Store) UpsertIngredientByName(ctx context.Context, kitchenID string, in IngredientInput) (*models.Ingredient, bool, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, false, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, false, invalid("name is required")
	}

	var (
		result  *models.Ingredient
		created bool
	)
	err = tx.Transaction(func(tx *gorm.DB) error {
		inner := &Store{db: tx}

		var existing models.Ingredient
		err := scoped(tx, kitchenID).Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(*in.Name))).First(&existing).Error
		switch {
		case err == nil:
			in.Name = nil
			result, err = inner.UpdateIngredient(ctx, kitchenID, existing.ID, in)
			return err
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("find ingredient by name: %w", err)
		}

		result, err = inner.CreateIngredient(ctx, kitchenID, in)
		created = err == nil
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}
