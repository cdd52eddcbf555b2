package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bookhaven/bookhaven-server/internal/http/response"
	"github.com/bookhaven/bookhaven-server/internal/search"
)

// handleListBooks returns the catalog page by page, oldest first.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := s.catalog.ListBooks(ctx, parsePageParams(r))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, page, s.logger)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID := chi.URLParam(r, "id")

	book, err := s.catalog.GetBook(ctx, bookID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleListGenres returns the distinct genres present in the catalog.
func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	genres, err := s.catalog.Genres(ctx)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, genres, s.logger)
}

// handleSearchBooks runs a full-text catalog search.
// Query parameters: q, genre, in_stock, limit, offset, sort, order.
func (s *Server) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	params := search.DefaultParams()
	params.Query = q.Get("q")
	params.Genre = q.Get("genre")

	if v := q.Get("in_stock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(w, "Invalid in_stock value", s.logger)
			return
		}
		params.InStockOnly = inStock
	}

	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			params.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			params.Offset = n
		}
	}

	if v := q.Get("sort"); v != "" {
		params.SortBy = v
	}
	if v := q.Get("order"); v != "" {
		params.SortOrder = v
	}

	result, err := s.search.Search(ctx, params)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, result, s.logger)
}
