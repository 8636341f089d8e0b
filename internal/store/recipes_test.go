package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mise/models"
)

func TestCreateRecipeDefaults(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	recipe, err := f.store.CreateRecipe(ctx, f.kitchen.ID, RecipeInput{Name: str("Soup")})
	require.NoError(t, err)
	assert.Equal(t, 1, recipe.Portions)
	assert.Equal(t, "EUR", recipe.Currency)
	require.NotNil(t, recipe.TargetFoodCostPct)
	assert.Equal(t, models.DefaultTargetFoodCostPct, *recipe.TargetFoodCostPct)
	assert.Nil(t, recipe.SellingPrice)
	assert.False(t, recipe.Archived)

	usd, err := f.store.CreateRecipe(ctx, f.kitchen.ID, RecipeInput{Name: str("Burger"), Currency: str("usd")})
	require.NoError(t, err)
	assert.Equal(t, "USD", usd.Currency)
}

func TestCreateRecipeValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]RecipeInput{
		"missing name":   {},
		"zero portions":  {Name: str("x"), Portions: integer(0)},
		"target too low": {Name: str("x"), TargetFoodCostPct: num(0.5)},
		"target too big": {Name: str("x"), TargetFoodCostPct: num(100)},
		"negative price": {Name: str("x"), SellingPrice: num(-1)},
		"negative fat":   {Name: str("x"), FatG: num(-1)},
	}
	for name, in := range cases {
		_, err := f.store.CreateRecipe(ctx, f.kitchen.ID, in)
		assert.ErrorIs(t, err, ErrInvalid, name)
	}
}

func TestArchiveExcludesFromDefaultListing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	soup := f.recipe(t, "Soup", 4)
	f.recipe(t, "Bread", 10)

	archived, err := f.store.ArchiveRecipe(ctx, f.kitchen.ID, soup.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	listed, err := f.store.ListRecipes(ctx, f.kitchen.ID, RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Bread", listed[0].Name)

	listed, err = f.store.ListRecipes(ctx, f.kitchen.ID, RecipeFilter{Archived: true})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Soup", listed[0].Name)

	restored, err := f.store.UnarchiveRecipe(ctx, f.kitchen.ID, soup.ID)
	require.NoError(t, err)
	assert.False(t, restored.Archived)

	other, err := f.store.ListRecipes(ctx, f.other.ID, RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestUpdateRecipeAndApplySellingPrice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	recipe := f.recipe(t, "Tart", 6)

	updated, err := f.store.UpdateRecipe(ctx, f.kitchen.ID, recipe.ID, RecipeInput{Portions: integer(8), Calories: num(420)})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Portions)
	assert.Equal(t, "Tart", updated.Name)
	require.NotNil(t, updated.Calories)
	assert.Equal(t, 420.0, *updated.Calories)

	priced, err := f.store.ApplySellingPrice(ctx, f.kitchen.ID, recipe.ID, 8.3333)
	require.NoError(t, err)
	require.NotNil(t, priced.SellingPrice)
	assert.Equal(t, 8.33, *priced.SellingPrice)

	_, err = f.store.ApplySellingPrice(ctx, f.kitchen.ID, recipe.ID, -1)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = f.store.UpdateRecipe(ctx, f.other.ID, recipe.ID, RecipeInput{Name: str("stolen")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateRecipeCopiesLinesAndSteps(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	flour := f.ingredient(t, f.kitchen.ID, "Flour", "kg", 1)
	recipe := f.recipe(t, "Bread", 2)
	f.line(t, recipe.ID, flour.ID, 500, "g")
	_, err := f.store.CreateStep(ctx, f.kitchen.ID, recipe.ID, StepInput{Instruction: str("Knead")})
	require.NoError(t, err)
	_, err = f.store.ArchiveRecipe(ctx, f.kitchen.ID, recipe.ID)
	require.NoError(t, err)

	first, err := f.store.DuplicateRecipe(ctx, f.kitchen.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bread (Copy)", first.Name)
	assert.False(t, first.Archived)
	assert.NotEqual(t, recipe.ID, first.ID)
	require.Len(t, first.Lines, 1)
	assert.Equal(t, first.ID, first.Lines[0].RecipeID)
	require.Len(t, first.Steps, 1)
	assert.Equal(t, "Knead", first.Steps[0].Instruction)

	second, err := f.store.DuplicateRecipe(ctx, f.kitchen.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bread (Copy 2)", second.Name)

	original, err := f.store.GetRecipe(ctx, f.kitchen.ID, recipe.ID)
	require.NoError(t, err)
	assert.Len(t, original.Lines, 1)
}

func TestNextCopiedName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		existing []string
		base     string
		want     string
	}{
		{nil, "Soup", "Soup (Copy)"},
		{[]string{"soup (copy)"}, "Soup", "Soup (Copy 2)"},
		{[]string{"Soup (Copy)", "Soup (Copy 2)", "Soup (Copy 4)"}, " Soup ", "Soup (Copy 3)"},
		{nil, "", "Untitled recipe (Copy)"},
	}
	for _, tt := range cases {
		assert.Equal(t, tt.want, NextCopiedName(tt.existing, tt.base))
	}
}
