package api

import (
	"io"
	"net/http"
	"net/mail"

	"github.com/go-chi/chi/v5"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/http/response"
	"github.com/bookhaven/bookhaven-server/internal/notify"
	"github.com/bookhaven/bookhaven-server/internal/service"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

func (s *Server) handleAdminCreateBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.CreateBookRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	book, err := s.catalog.CreateBook(ctx, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, book, s.logger)
}

func (s *Server) handleAdminUpdateBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID := chi.URLParam(r, "id")

	var req service.UpdateBookRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	book, err := s.catalog.UpdateBook(ctx, bookID, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// StockRequest changes a book's stock, either absolutely or by a delta.
// Exactly one of the two fields must be set. Deltas clamp at zero;
// absolute values below zero are rejected.
type StockRequest struct {
	Stock *int `json:"stock"`
	Delta *int `json:"delta"`
}

func (s *Server) handleAdminSetStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID := chi.URLParam(r, "id")

	var req StockRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if (req.Stock == nil) == (req.Delta == nil) {
		response.BadRequest(w, "Provide exactly one of stock or delta", s.logger)
		return
	}

	var (
		book *domain.Book
		err  error
	)
	if req.Stock != nil {
		book, err = s.catalog.SetStock(ctx, bookID, *req.Stock)
	} else {
		book, err = s.catalog.AdjustStock(ctx, bookID, *req.Delta)
	}
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleAdminListOrders lists all transactions, optionally filtered by
// kind, status, and user email query parameters.
func (s *Server) handleAdminListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := store.TransactionFilter{
		Kind:      domain.Kind(q.Get("kind")),
		Status:    domain.Status(q.Get("status")),
		UserEmail: q.Get("user"),
	}

	entries, err := s.history.All(ctx, filter)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, entries, s.logger)
}

// handleAdminCompleteOrder marks a pending purchase as completed and
// notifies the buyer that the order is ready.
func (s *Server) handleAdminCompleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txnID := chi.URLParam(r, "id")

	txn, err := s.orders.Complete(ctx, txnID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, txn, s.logger)
}

// handleAdminReturnOrder processes a return on the borrower's behalf,
// for books handed back at the counter.
func (s *Server) handleAdminReturnOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txnID := chi.URLParam(r, "id")

	txn, err := s.orders.Return(ctx, txnID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, txn, s.logger)
}

// ImportResult reports the outcome of a legacy order import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// handleAdminImportOrders ingests a legacy order export. Records whose IDs
// already exist are skipped; imports never touch stock.
func (s *Server) handleAdminImportOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, err := io.ReadAll(io.LimitReader(r.Body, 16<<20))
	if err != nil {
		response.BadRequest(w, "Failed to read request body", s.logger)
		return
	}

	txns, err := domain.ParseLegacyExport(data)
	if err != nil {
		response.BadRequest(w, "Unrecognized export format", s.logger)
		return
	}

	var result ImportResult
	for _, txn := range txns {
		imported, err := s.store.ImportTransaction(ctx, txn)
		if err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
		if imported {
			result.Imported++
		} else {
			result.Skipped++
		}
	}

	s.logger.Info("legacy orders imported", "imported", result.Imported, "skipped", result.Skipped)
	response.Success(w, result, s.logger)
}

// ReindexResult reports how many books were reindexed.
type ReindexResult struct {
	Indexed int `json:"indexed"`
}

func (s *Server) handleAdminReindex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := s.search.Reindex(ctx)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, ReindexResult{Indexed: count}, s.logger)
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := s.users.List(ctx)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, users, s.logger)
}

// handleAdminSummary returns storefront-wide reconciliation numbers.
func (s *Server) handleAdminSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := s.history.Summarize(ctx)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, summary, s.logger)
}

// NotifyRequest is a one-off message sent through the configured mailer,
// used for supplier and customer correspondence from the back office.
type NotifyRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (s *Server) handleAdminNotify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req NotifyRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if _, err := mail.ParseAddress(req.To); err != nil {
		response.BadRequest(w, "A valid recipient is required", s.logger)
		return
	}
	if req.Subject == "" {
		response.BadRequest(w, "subject is required", s.logger)
		return
	}

	msg := notify.Message{To: req.To, Subject: req.Subject, Body: req.Body}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("admin notification failed", "to", req.To, "error", err)
		response.InternalError(w, "Failed to send message", s.logger)
		return
	}

	response.NoContent(w)
}
