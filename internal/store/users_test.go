package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserWithKitchen(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	user, err := f.store.CreateUserWithKitchen(ctx, NewAccount{
		Email:        " Chef@Example.com ",
		Name:         "Chef",
		PasswordHash: "hash",
		KitchenName:  "Harbour Café",
		Currency:     "gbp",
	})
	require.NoError(t, err)
	assert.Equal(t, "chef@example.com", user.Email)
	require.NotEmpty(t, user.KitchenID)

	kitchen, err := f.store.GetKitchen(ctx, user.KitchenID)
	require.NoError(t, err)
	assert.Equal(t, "Harbour Café", kitchen.Name)
	assert.Equal(t, "GBP", kitchen.Currency)

	found, err := f.store.FindUserByEmail(ctx, "CHEF@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	require.NotNil(t, found.Kitchen)
	assert.Equal(t, kitchen.ID, found.Kitchen.ID)

	_, err = f.store.CreateUserWithKitchen(ctx, NewAccount{Email: "chef@example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.store.CreateUserWithKitchen(ctx, NewAccount{Email: "not-an-email", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = f.store.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
