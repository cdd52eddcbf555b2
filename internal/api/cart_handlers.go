package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookhaven/bookhaven-server/internal/http/response"
)

// AddCartItemRequest identifies the book to add to the cart.
type AddCartItemRequest struct {
	BookID string `json:"book_id"`
}

// SetCartQuantityRequest sets the absolute quantity of a cart line.
// A quantity of zero removes the line.
type SetCartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cart, err := s.carts.GetCart(ctx, getEmail(ctx))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, cart, s.logger)
}

func (s *Server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AddCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if req.BookID == "" {
		response.BadRequest(w, "book_id is required", s.logger)
		return
	}

	cart, err := s.carts.AddToCart(ctx, getEmail(ctx), req.BookID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, cart, s.logger)
}

func (s *Server) handleSetCartQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID := chi.URLParam(r, "bookID")

	var req SetCartQuantityRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if req.Quantity < 0 {
		response.BadRequest(w, "quantity cannot be negative", s.logger)
		return
	}

	cart, err := s.carts.SetQuantity(ctx, getEmail(ctx), bookID, req.Quantity)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, cart, s.logger)
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID := chi.URLParam(r, "bookID")

	cart, err := s.carts.RemoveFromCart(ctx, getEmail(ctx), bookID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, cart, s.logger)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.carts.ClearCart(ctx, getEmail(ctx)); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}
