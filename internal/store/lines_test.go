package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mise/models"
)

func lineIDs(lines []models.RecipeLine) []string {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ID)
	}
	return ids
}

func TestCreateLineAppendsWithGaps(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	flour := f.ingredient(t, f.kitchen.ID, "Flour", "kg", 1)
	recipe := f.recipe(t, "Bread", 1)

	group, err := f.store.CreateLine(ctx, f.kitchen.ID, recipe.ID, LineInput{LineType: str("group"), Title: str("Dough")})
	require.NoError(t, err)
	first := f.line(t, recipe.ID, flour.ID, 500, " g ")

	assert.Equal(t, 10, group.SortOrder)
	assert.Nil(t, group.IngredientID)
	assert.Equal(t, 20, first.SortOrder)
	assert.Equal(t, "g", first.Unit)

	lines, err := f.store.ListLines(ctx, f.kitchen.ID, recipe.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.NotNil(t, lines[1].Ingredient)
	assert.Equal(t, "Flour", lines[1].Ingredient.Name)
}

func TestCreateLineValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	flour := f.ingredient(t, f.kitchen.ID, "Flour", "kg", 1)
	foreign := f.ingredient(t, f.other.ID, "Their flour", "kg", 1)
	recipe := f.recipe(t, "Bread", 1)

	cases := map[string]LineInput{
		"group without title": {LineType: str("group")},
		"unknown type":        {LineType: str("note"), Title: str("x")},
		"missing ingredient":  {Qty: num(1)},
		"foreign ingredient":  {IngredientID: str(foreign.ID), Qty: num(1)},
		"unknown ingredient":  {IngredientID: str("nope"), Qty: num(1)},
		"zero quantity":       {IngredientID: str(flour.ID), Qty: num(0)},
		"negative quantity":   {IngredientID: str(flour.ID), Qty: num(-5)},
	}
	for name, in := range cases {
		_, err := f.store.CreateLine(ctx, f.kitchen.ID, recipe.ID, in)
		assert.ErrorIs(t, err, ErrInvalid, name)
	}

	_, err := f.store.CreateLine(ctx, f.kitchen.ID, "missing-recipe", LineInput{IngredientID: str(flour.ID), Qty: num(1)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateLine(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	flour := f.ingredient(t, f.kitchen.ID, "Flour", "kg", 1)
	recipe := f.recipe(t, "Bread", 1)
	line := f.line(t, recipe.ID, flour.ID, 500, "g")

	updated, err := f.store.UpdateLine(ctx, f.kitchen.ID, recipe.ID, line.ID, LineInput{Qty: num(750), Note: str("sifted")})
	require.NoError(t, err)
	assert.Equal(t, 750.0, updated.Qty)
	assert.Equal(t, "sifted", updated.Note)
	assert.Equal(t, line.SortOrder, updated.SortOrder)

	_, err = f.store.UpdateLine(ctx, f.kitchen.ID, recipe.ID, line.ID, LineInput{Qty: num(0)})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = f.store.UpdateLine(ctx, f.other.ID, recipe.ID, line.ID, LineInput{Qty: num(1)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInactiveIngredientOnlyOnExistingLines(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	flour := f.ingredient(t, f.kitchen.ID, "Flour", "kg", 1)
	milk := f.ingredient(t, f.kitchen.ID, "Milk", "l", 2)
	recipe := f.recipe(t, "Crêpes", 4)
	line := f.line(t, recipe.ID, milk.ID, 500, "ml")

	_, err := f.store.DeactivateIngredient(ctx, f.kitchen.ID, milk.ID)
	require.NoError(t, err)

	_, err = f.store.CreateLine(ctx, f.kitchen.ID, recipe.ID, LineInput{IngredientID: str(milk.ID), Qty: num(1)})
	assert.ErrorIs(t, err, ErrInvalid)

	updated, err := f.store.UpdateLine(ctx, f.kitchen.ID, recipe.ID, line.ID, LineInput{Qty: num(750)})
	require.NoError(t, err, "editing a line that already uses the ingredient stays allowed")
	assert.Equal(t, 750.0, updated.Qty)

	flourLine := f.line(t, recipe.ID, flour.ID, 250, "g")
	_, err = f.store.UpdateLine(ctx, f.kitchen.ID, recipe.ID, flourLine.ID, LineInput{IngredientID: str(milk.ID)})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDeleteLineKeepsIngredient(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	flour := f.ingredient(t, f.kitchen.ID, "Flour", "kg", 1)
	recipe := f.recipe(t, "Bread", 1)
	line := f.line(t, recipe.ID, flour.ID, 500, "g")

	require.NoError(t, f.store.DeleteLine(ctx, f.kitchen.ID, recipe.ID, line.ID))
	assert.ErrorIs(t, f.store.DeleteLine(ctx, f.kitchen.ID, recipe.ID, line.ID), ErrNotFound)

	_, err := f.store.GetIngredient(ctx, f.kitchen.ID, flour.ID)
	require.NoError(t, err)
}

func TestDuplicateLineLandsAfterSource(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	flour := f.ingredient(t, f.kitchen.ID, "Flour", "kg", 1)
	recipe := f.recipe(t, "Bread", 1)
	a := f.line(t, recipe.ID, flour.ID, 100, "g")
	b := f.line(t, recipe.ID, flour.ID, 200, "g")

	copy1, err := f.store.DuplicateLine(ctx, f.kitchen.ID, recipe.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, copy1.SortOrder)
	assert.Equal(t, a.Qty, copy1.Qty)

	copy2, err := f.store.DuplicateLine(ctx, f.kitchen.ID, recipe.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, copy2.SortOrder)

	copy3, err := f.store.DuplicateLine(ctx, f.kitchen.ID, recipe.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, copy3.SortOrder)

	copy4, err := f.store.DuplicateLine(ctx, f.kitchen.ID, recipe.ID, a.ID)
	require.NoError(t, err)

	lines, err := f.store.ListLines(ctx, f.kitchen.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, copy4.ID, copy3.ID, copy2.ID, copy1.ID, b.ID}, lineIDs(lines))
	for i, line := range lines {
		assert.Equal(t, (i+1)*models.SortGap, line.SortOrder)
	}

	last, err := f.store.DuplicateLine(ctx, f.kitchen.ID, recipe.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, last.SortOrder)

	_, err = f.store.DuplicateLine(ctx, f.kitchen.ID, recipe.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReorderLines(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	flour := f.ingredient(t, f.kitchen.ID, "Flour", "kg", 1)
	recipe := f.recipe(t, "Bread", 1)
	a := f.line(t, recipe.ID, flour.ID, 1, "g")
	b := f.line(t, recipe.ID, flour.ID, 2, "g")
	c := f.line(t, recipe.ID, flour.ID, 3, "g")

	lines, err := f.store.ReorderLines(ctx, f.kitchen.ID, recipe.ID, []string{c.ID, a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, lineIDs(lines))
	assert.Equal(t, []int{10, 20, 30}, []int{lines[0].SortOrder, lines[1].SortOrder, lines[2].SortOrder})

	_, err = f.store.ReorderLines(ctx, f.kitchen.ID, recipe.ID, []string{c.ID, a.ID})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = f.store.ReorderLines(ctx, f.kitchen.ID, recipe.ID, []string{c.ID, a.ID, a.ID})
	assert.ErrorIs(t, err, ErrInvalid)
}
