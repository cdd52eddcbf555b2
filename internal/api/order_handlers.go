package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookhaven/bookhaven-server/internal/http/response"
	"github.com/bookhaven/bookhaven-server/internal/service"
)

// handleCheckout turns the caller's cart into a purchase order.
// Stock is checked and decremented atomically; any shortage aborts the
// whole order and the cart stays intact.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.CheckoutRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	txn, err := s.orders.CheckoutPurchase(ctx, getEmail(ctx), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, txn, s.logger)
}

// handleBorrow issues a zero-cost loan for the requested books, one
// transaction per granted book so each can be returned on its own. Books
// that are out of stock are skipped rather than failing the whole request.
func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.BorrowRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	txns, err := s.orders.CheckoutBorrow(ctx, getEmail(ctx), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, txns, s.logger)
}

// handleHistory returns the caller's purchases and borrows, newest first,
// with display totals and a read-time overdue flag.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := s.history.ForUser(ctx, getEmail(ctx))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, entries, s.logger)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txnID := chi.URLParam(r, "id")

	txn, err := s.orders.Get(ctx, txnID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	// Callers only see their own transactions. Respond as if the record
	// does not exist so IDs cannot be probed.
	if txn.UserEmail != getEmail(ctx) {
		response.NotFound(w, "Transaction not found", s.logger)
		return
	}

	response.Success(w, txn, s.logger)
}

// handleReturnTransaction returns a borrowed order and restocks its books.
func (s *Server) handleReturnTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txnID := chi.URLParam(r, "id")

	txn, err := s.orders.Get(ctx, txnID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if txn.UserEmail != getEmail(ctx) {
		response.NotFound(w, "Transaction not found", s.logger)
		return
	}

	returned, err := s.orders.Return(ctx, txnID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, returned, s.logger)
}
