package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"mise/models"
)

// StepInput carries create and partial update values for a cook-mode step.
type StepInput struct {
	Instruction  *string `json:"instruction"`
	TimerSeconds *int    `json:"timer_seconds"`
}

func (in StepInput) validate() error {
	if in.Instruction != nil && strings.TrimSpace(*in.Instruction) == "" {
		return invalid("instruction is required")
	}
	if in.TimerSeconds != nil && *in.TimerSeconds < 0 {
		return invalid("timer_seconds must not be negative")
	}
	return nil
}

func orderedSteps(tx *gorm.DB, kitchenID, recipeID string) ([]models.RecipeStep, error) {
	var steps []models.RecipeStep
	err := scoped(tx, kitchenID).
		Where("recipe_id = ?", recipeID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&steps).Error
	if err != nil {
		return nil, fmt.Errorf("list recipe steps: %w", err)
	}
	return steps, nil
}

func getStep(tx *gorm.DB, kitchenID, recipeID, id string) (*models.RecipeStep, error) {
	var step models.RecipeStep
	if err := scoped(tx, kitchenID).Where("recipe_id = ? AND id = ?", recipeID, id).First(&step).Error; err != nil {
		return nil, notFound("recipe step", err)
	}
	return &step, nil
}

// ListSteps returns a recipe's steps in cooking order.
func (s *Store) ListSteps(ctx context.Context, kitchenID, recipeID string) ([]models.RecipeStep, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	if err := recipeExists(tx, kitchenID, recipeID); err != nil {
		return nil, err
	}
	return orderedSteps(tx, kitchenID, recipeID)
}

// GetStep loads one step.
func (s *Store) GetStep(ctx context.Context, kitchenID, recipeID, id string) (*models.RecipeStep, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	return getStep(tx, kitchenID, recipeID, id)
}

// CreateStep appends a step to the recipe.
func (s *Store) CreateStep(ctx context.Context, kitchenID, recipeID string, in StepInput) (*models.RecipeStep, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	if in.Instruction == nil {
		return nil, invalid("instruction is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	step := models.RecipeStep{
		KitchenID:   kitchenID,
		RecipeID:    recipeID,
		Instruction: strings.TrimSpace(*in.Instruction),
	}
	if in.TimerSeconds != nil {
		step.TimerSeconds = *in.TimerSeconds
	}

	err = tx.Transaction(func(tx *gorm.DB) error {
		if err := recipeExists(tx, kitchenID, recipeID); err != nil {
			return err
		}
		var last int
		if err := scoped(tx.Model(&models.RecipeStep{}), kitchenID).
			Where("recipe_id = ?", recipeID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&last).Error; err != nil {
			return fmt.Errorf("find last step position: %w", err)
		}
		step.Position = last + models.SortGap
		if err := tx.Create(&step).Error; err != nil {
			return fmt.Errorf("create recipe step: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &step, nil
}

// UpdateStep applies the non-nil fields of in.
func (s *Store) UpdateStep(ctx context.Context, kitchenID, recipeID, id string, in StepInput) (*models.RecipeStep, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if in.Instruction != nil {
		changes["instruction"] = strings.TrimSpace(*in.Instruction)
	}
	if in.TimerSeconds != nil {
		changes["timer_seconds"] = *in.TimerSeconds
	}
	return s.updateStep(tx, kitchenID, recipeID, id, changes)
}

// SetStepPhoto records the object key of a step photo.
func (s *Store) SetStepPhoto(ctx context.Context, kitchenID, recipeID, id, key string) (*models.RecipeStep, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	return s.updateStep(tx, kitchenID, recipeID, id, map[string]any{"photo_key": key})
}

func (s *Store) updateStep(tx *gorm.DB, kitchenID, recipeID, id string, changes map[string]any) (*models.RecipeStep, error) {
	if _, err := getStep(tx, kitchenID, recipeID, id); err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		if err := scoped(tx.Model(&models.RecipeStep{}), kitchenID).Where("id = ?", id).Updates(changes).Error; err != nil {
			return nil, fmt.Errorf("update recipe step: %w", err)
		}
	}
	return getStep(tx, kitchenID, recipeID, id)
}

// DeleteStep removes one step.
func (s *Store) DeleteStep(ctx context.Context, kitchenID, recipeID, id string) error {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return err
	}
	result := scoped(tx, kitchenID).Where("recipe_id = ? AND id = ?", recipeID, id).Delete(&models.RecipeStep{})
	if result.Error != nil {
		return fmt.Errorf("delete recipe step: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("recipe step: %w", ErrNotFound)
	}
	return nil
}

// ReorderSteps assigns positions SortGap, 2*SortGap, ... following ids.
func (s *Store) ReorderSteps(ctx context.Context, kitchenID, recipeID string, ids []string) ([]models.RecipeStep, error) {
	tx, err := s.conn(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	var steps []models.RecipeStep
	err = tx.Transaction(func(tx *gorm.DB) error {
		if err := recipeExists(tx, kitchenID, recipeID); err != nil {
			return err
		}
		current, err := orderedSteps(tx, kitchenID, recipeID)
		if err != nil {
			return err
		}
		existing := make([]string, 0, len(current))
		for _, step := range current {
			existing = append(existing, step.ID)
		}
		if err := samePermutation(existing, ids); err != nil {
			return err
		}
		for id, position := range renumbered(ids) {
			if err := scoped(tx.Model(&models.RecipeStep{}), kitchenID).Where("id = ?", id).Update("position", position).Error; err != nil {
				return fmt.Errorf("renumber recipe step: %w", err)
			}
		}
		steps, err = orderedSteps(tx, kitchenID, recipeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return steps, nil
}
