package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bookhaven/bookhaven-server/internal/errors"
)

func TestAddToCart(t *testing.T) {
	env := setupServices(t)
	env.seedBook(t, "book-1", 100, 5)

	cart, err := env.carts.AddToCart(t.Context(), alice, "book-1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 1, cart.Lines[0].Quantity)

	// Adding again bumps the quantity instead of adding a line.
	cart, err = env.carts.AddToCart(t.Context(), alice, "book-1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.Equal(t, int64(200), cart.Total())
}

func TestAddToCartUnknownBook(t *testing.T) {
	env := setupServices(t)

	_, err := env.carts.AddToCart(t.Context(), alice, "book-missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddToCartAllowsOverStock(t *testing.T) {
	env := setupServices(t)
	env.seedBook(t, "book-1", 100, 1)

	// The cart does not police stock; checkout does.
	_, err := env.carts.AddToCart(t.Context(), alice, "book-1")
	require.NoError(t, err)
	cart, err := env.carts.SetQuantity(t.Context(), alice, "book-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Lines[0].Quantity)
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	env := setupServices(t)
	env.seedBook(t, "book-1", 100, 5)

	_, err := env.carts.AddToCart(t.Context(), alice, "book-1")
	require.NoError(t, err)

	cart, err := env.carts.SetQuantity(t.Context(), alice, "book-1", 0)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	env := setupServices(t)
	env.seedBook(t, "book-1", 100, 5)

	_, err := env.carts.AddToCart(t.Context(), alice, "book-1")
	require.NoError(t, err)

	bobCart, err := env.carts.GetCart(t.Context(), "bob@example.com")
	require.NoError(t, err)
	assert.True(t, bobCart.IsEmpty())
}

func TestClearCart(t *testing.T) {
	env := setupServices(t)
	env.seedBook(t, "book-1", 100, 5)

	_, err := env.carts.AddToCart(t.Context(), alice, "book-1")
	require.NoError(t, err)
	require.NoError(t, env.carts.ClearCart(t.Context(), alice))

	cart, err := env.carts.GetCart(t.Context(), alice)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}
