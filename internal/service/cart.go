package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

// CartService manages per-shopper carts. The cart is a scratchpad:
// quantities are not checked against stock here, checkout is where the
// catalog has the final word.
type CartService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(store *store.Store, logger *slog.Logger) *CartService {
	return &CartService{
		store:  store,
		logger: logger,
	}
}

// GetCart returns the shopper's cart, empty if they have none.
func (s *CartService) GetCart(ctx context.Context, email string) (*domain.Cart, error) {
	return s.store.GetCart(ctx, email)
}

// AddToCart puts one copy of a book in the cart, or bumps the quantity if
// the book is already there. The line snapshots the book's current price;
// checkout re-snapshots, so a price change between add and checkout is
// charged at checkout price.
func (s *CartService) AddToCart(ctx context.Context, email, bookID string) (*domain.Cart, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	cart, err := s.store.GetCart(ctx, email)
	if err != nil {
		return nil, err
	}

	cart.Add(book.Snapshot())
	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// SetQuantity sets the quantity for a book in the cart. Zero or negative
// removes the line; a book not in the cart is left alone.
func (s *CartService) SetQuantity(ctx context.Context, email, bookID string, qty int) (*domain.Cart, error) {
	cart, err := s.store.GetCart(ctx, email)
	if err != nil {
		return nil, err
	}

	cart.SetQuantity(bookID, qty)
	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// RemoveFromCart deletes a book's line from the cart.
func (s *CartService) RemoveFromCart(ctx context.Context, email, bookID string) (*domain.Cart, error) {
	cart, err := s.store.GetCart(ctx, email)
	if err != nil {
		return nil, err
	}

	cart.Remove(bookID)
	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// ClearCart empties the cart.
func (s *CartService) ClearCart(ctx context.Context, email string) error {
	return s.store.DeleteCart(ctx, email)
}
