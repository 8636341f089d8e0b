package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mise/models"
)

// LineInput carries create and partial update values for a recipe line.
type LineInput struct {
	LineType     *string  `json:"line_type"`
	IngredientID *string  `json:"ingredient_id"`
	Qty          *float64 `json:"qty"`
	Unit         *string  `json:"unit"`
	Note         *string  `json:"note"`
	Title        *string  `json:"title"`
}

func (in LineInput) apply(line *models.RecipeLine) {
	if in.LineType != nil {
		line.LineType = strings.ToLower(strings.TrimSpace(*in.LineType))
	}
	if in.IngredientID != nil {
		id := strings.TrimSpace(*in.IngredientID)
		line.IngredientID = &id
	}
	if in.Qty != nil {
		line.Qty = *in.Qty
	}
	if in.Unit != nil {
		line.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.Note != nil {
		line.Note = strings.TrimSpace(*in.Note)
	}
	if in.Title != nil {
		line.Title = strings.TrimSpace(*in.Title)
	}
}

// validateLine enforces the write invariants: ingredient lines reference an
// ingredient of the same kitchen with a positive quantity, group lines have a title.
// An inactive ingredient is accepted only when it is already the line's ingredient
// (previousIngredientID); new references must be active.
func validateLine(tx *gorm.DB, kitchenID string, line *models.RecipeLine, previousIngredientID *string) error {
	switch line.LineType {
	case models.LineTypeIngredient:
		if line.IngredientID == nil || *line.IngredientID == "" {
			return invalid("ingredient_id is required for ingredient lines")
		}
		ingredient, err := getIngredient(tx, kitchenID, *line.IngredientID)
		if err != nil {
			if isNotFound(err) {
				return invalid("ingredient %q does not exist in this kitchen", *line.IngredientID)
			}
			return err
		}
		unchanged := previousIngredientID != nil && *previousIngredientID == ingredient.ID
		if !ingredient.Active && !unchanged {
			return invalid("ingredient %q is inactive", ingredient.Name)
		}
		if !finite(line.Qty) || line.Qty <= 0 {
			return invalid("qty must be greater than zero")
		}
		line.Title = ""
	case models.LineTypeGroup:
		if line.Title == "" {
			return invalid("title is required for group lines")
		}
		line.IngredientID = nil
		line.Qty = 0
		line.Unit = ""
	default:
		return invalid("line_type must be %q or %q", models.LineTypeIngredient, models.LineTypeGroup)
	}
	return nil
}

func orderedLines(tx *gorm.DB, kitchenID, recipeID string) ([]models.RecipeLine, error) {
	var lines []models.RecipeLine
	err := scoped(tx, kitchenID).
		Where("recipe_id = ?", recipeID).
		Order("sort_order ASC").
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("list recipe lines: %w", err)
	}
	return lines, nil
}

func getLine(tx *gorm.DB, kitchenID, recipeID, id string) (*models.RecipeLine, error) {
	var line models.RecipeLine
	if err := scoped(tx, kitchenID).Where("recipe_id = ? AND id = ?", recipeID, id).First(&line).Error; err != nil {
		return nil, notFound("recipe line", err)
	}
	return &line, nil
}

// ListLines returns a recipe's lines in sort order with their ingredients attached.
func (s *Store) ListLines(ctx context.Context, kitchenID, recipeID string) ([]models.RecipeLine, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	if err := recipeExists(tx, kitchenID, recipeID); err != nil {
		return nil, err
	}
	return orderedLines(tx.Preload("Ingredient", "kitchen_id = ?", kitchenID), kitchenID, recipeID)
}

// CreateLine appends a line after the current last line.
func (s *Store) CreateLine(ctx context.Context, kitchenID, recipeID string, in LineInput) (*models.RecipeLine, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	line := models.RecipeLine{
		KitchenID: kitchenID,
		RecipeID:  recipeID,
		LineType:  models.LineTypeIngredient,
	}
	in.apply(&line)

	err = tx.Transaction(func(tx *gorm.DB) error {
		if err := recipeExists(tx, kitchenID, recipeID); err != nil {
			return err
		}
		if err := validateLine(tx, kitchenID, &line, nil); err != nil {
			return err
		}

		var last int
		if err := scoped(tx.Model(&models.RecipeLine{}), kitchenID).
			Where("recipe_id = ?", recipeID).
			Select("COALESCE(MAX(sort_order), 0)").
			Scan(&last).Error; err != nil {
			return fmt.Errorf("find last sort order: %w", err)
		}
		line.SortOrder = last + models.SortGap

		if err := tx.Omit(clause.Associations).Create(&line).Error; err != nil {
			return fmt.Errorf("create recipe line: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateLine applies the non-nil fields of in and re-validates the result.
func (s *Store) UpdateLine(ctx context.Context, kitchenID, recipeID, id string, in LineInput) (*models.RecipeLine, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	var line *models.RecipeLine
	err = tx.Transaction(func(tx *gorm.DB) error {
		found, err := getLine(tx, kitchenID, recipeID, id)
		if err != nil {
			return err
		}
		line = found
		var previousIngredientID *string
		if found.IngredientID != nil {
			id := *found.IngredientID
			previousIngredientID = &id
		}
		in.apply(line)
		if err := validateLine(tx, kitchenID, line, previousIngredientID); err != nil {
			return err
		}

		changes := map[string]any{
			"line_type":     line.LineType,
			"ingredient_id": line.IngredientID,
			"qty":           line.Qty,
			"unit":          line.Unit,
			"note":          line.Note,
			"title":         line.Title,
		}
		if err := scoped(tx.Model(&models.RecipeLine{}), kitchenID).Where("id = ?", id).Updates(changes).Error; err != nil {
			return fmt.Errorf("update recipe line: %w", err)
		}
		line, err = getLine(tx, kitchenID, recipeID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// DeleteLine removes one line.
func (s *Store) DeleteLine(ctx context.Context, kitchenID, recipeID, id string) error {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return err
	}
	result := scoped(tx, kitchenID).Where("recipe_id = ? AND id = ?", recipeID, id).Delete(&models.RecipeLine{})
	if result.Error != nil {
		return fmt.Errorf("delete recipe line: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("recipe line: %w", ErrNotFound)
	}
	return nil
}

// DuplicateLine inserts a copy directly after the source line. The copy takes the
// midpoint sort order, or the recipe is renumbered in gaps of SortGap when no gap remains.
func (s *Store) DuplicateLine(ctx context.Context, kitchenID, recipeID, id string) (*models.RecipeLine, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	var duplicate models.RecipeLine
	err = tx.Transaction(func(tx *gorm.DB) error {
		lines, err := orderedLines(tx, kitchenID, recipeID)
		if err != nil {
			return err
		}
		index := -1
		for i := range lines {
			if lines[i].ID == id {
				index = i
				break
			}
		}
		if index < 0 {
			return fmt.Errorf("recipe line: %w", ErrNotFound)
		}

		source := lines[index]
		duplicate = source
		duplicate.Record = models.Record{}

		sortOrder, renumber := insertAfter(lines, index)
		if renumber {
			position := 0
			for _, line := range lines {
				position += models.SortGap
				if err := setLineSortOrder(tx, kitchenID, line.ID, position); err != nil {
					return err
				}
				if line.ID == source.ID {
					position += models.SortGap
					sortOrder = position
				}
			}
		}
		duplicate.SortOrder = sortOrder

		if err := tx.Omit(clause.Associations).Create(&duplicate).Error; err != nil {
			return fmt.Errorf("duplicate recipe line: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &duplicate, nil
}

// insertAfter returns the sort order for a row placed after lines[index], or
// reports that the recipe must be renumbered first.
func insertAfter(lines []models.RecipeLine, index int) (int, bool) {
	current := lines[index].SortOrder
	if index == len(lines)-1 {
		return current + models.SortGap, false
	}
	next := lines[index+1].SortOrder
	if next-current < 2 {
		return 0, true
	}
	return current + (next-current)/2, false
}

// renumbered assigns SortGap, 2*SortGap, ... to ids in order.
func renumbered(ids []string) map[string]int {
	positions := make(map[string]int, len(ids))
	for i, id := range ids {
		positions[id] = (i + 1) * models.SortGap
	}
	return positions
}

func setLineSortOrder(tx *gorm.DB, kitchenID, id string, sortOrder int) error {
	if err := scoped(tx.Model(&models.RecipeLine{}), kitchenID).Where("id = ?", id).Update("sort_order", sortOrder).Error; err != nil {
		return fmt.Errorf("renumber recipe line: %w", err)
	}
	return nil
}

// ReorderLines assigns sort orders SortGap, 2*SortGap, ... following ids. ids must
// name every line of the recipe exactly once.
func (s *Store) ReorderLines(ctx context.Context, kitchenID, recipeID string, ids []string) ([]models.RecipeLine, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	var lines []models.RecipeLine
	err = tx.Transaction(func(tx *gorm.DB) error {
		if err := recipeExists(tx, kitchenID, recipeID); err != nil {
			return err
		}
		current, err := orderedLines(tx, kitchenID, recipeID)
		if err != nil {
			return err
		}
		existing := make([]string, 0, len(current))
		for _, line := range current {
			existing = append(existing, line.ID)
		}
		if err := samePermutation(existing, ids); err != nil {
			return err
		}

		for id, position := range renumbered(ids) {
			if err := setLineSortOrder(tx, kitchenID, id, position); err != nil {
				return err
			}
		}
		lines, err = orderedLines(tx, kitchenID, recipeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// samePermutation checks that ids names every element of existing exactly once.
func samePermutation(existing, ids []string) error {
	if len(ids) != len(existing) {
		return invalid("order must list all %d items, got %d", len(existing), len(ids))
	}
	remaining := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		remaining[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := remaining[id]; !ok {
			return invalid("order contains unknown or repeated id %q", id)
		}
		delete(remaining, id)
	}
	return nil
}
