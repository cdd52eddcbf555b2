package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookhaven/bookhaven-server/internal/domain"
)

// Cart persistence. One cart per shopper, keyed by normalized email. A
// missing cart is indistinguishable from an empty one, so GetCart never
// returns not found.

// GetCart retrieves a user's cart, or a fresh empty cart if none is stored.
func (s *Store) GetCart(ctx context.Context, email string) (*domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cart domain.Cart
	err := s.get(cartKey(email), &cart)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.NewCart(normalizeEmail(email)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

// SaveCart persists a cart, overwriting any previous state.
func (s *Store) SaveCart(ctx context.Context, cart *domain.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.set(cartKey(cart.UserEmail), cart); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// DeleteCart removes a user's stored cart. Idempotent; used after checkout
// so the next GetCart starts empty.
func (s *Store) DeleteCart(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(cartKey(email))
	})
}
