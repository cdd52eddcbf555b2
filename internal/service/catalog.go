// Package service provides the business logic layer for the BookHaven
// storefront: catalog management, carts, checkout, and history.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/id"
	"github.com/bookhaven/bookhaven-server/internal/store"
	"github.com/bookhaven/bookhaven-server/internal/validation"
)

// CatalogService orchestrates catalog operations.
type CatalogService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store *store.Store, validator *validation.Validator, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// BookPage is one page of the catalog.
type BookPage struct {
	Items []*domain.Book `json:"items"`
	Total int            `json:"total"`
}

// CreateBookRequest carries the fields for adding a catalog title.
type CreateBookRequest struct {
	Title    string `json:"title" validate:"required,max=500"`
	Author   string `json:"author" validate:"required,max=300"`
	Genre    string `json:"genre" validate:"omitempty,max=100"`
	CoverURL string `json:"cover_url" validate:"omitempty,url"`
	Price    int64  `json:"price" validate:"gte=0"`
	Stock    int    `json:"stock" validate:"gte=0"`
}

// UpdateBookRequest carries editable catalog fields. Stock is absent on
// purpose; it moves only through the stock endpoints.
type UpdateBookRequest struct {
	Title    string `json:"title" validate:"required,max=500"`
	Author   string `json:"author" validate:"required,max=300"`
	Genre    string `json:"genre" validate:"omitempty,max=100"`
	CoverURL string `json:"cover_url" validate:"omitempty,url"`
	Price    int64  `json:"price" validate:"gte=0"`
}

// ListBooks returns a page of the catalog in shelf order.
func (s *CatalogService) ListBooks(ctx context.Context, page store.PageParams) (*BookPage, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	items, total := store.Paginate(books, page)
	return &BookPage{Items: items, Total: total}, nil
}

// GetBook returns a single catalog book.
func (s *CatalogService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.store.GetBook(ctx, bookID)
}

// CreateBook adds a new title to the catalog.
func (s *CatalogService) CreateBook(ctx context.Context, req CreateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book id: %w", err)
	}

	book := &domain.Book{
		Meta:     domain.Meta{ID: bookID},
		Title:    req.Title,
		Author:   req.Author,
		Genre:    req.Genre,
		CoverURL: req.CoverURL,
		Price:    req.Price,
		Stock:    req.Stock,
	}
	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.Info("book added to catalog", "book_id", book.ID, "title", book.Title)
	return book, nil
}

// UpdateBook edits a title's catalog fields.
func (s *CatalogService) UpdateBook(ctx context.Context, bookID string, req UpdateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book := &domain.Book{
		Meta:     domain.Meta{ID: bookID},
		Title:    req.Title,
		Author:   req.Author,
		Genre:    req.Genre,
		CoverURL: req.CoverURL,
		Price:    req.Price,
	}
	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, err
	}

	return s.store.GetBook(ctx, bookID)
}

// SetStock sets a book's stock to an absolute value. Titles are never
// removed from the catalog; zeroing the stock is how a book goes away.
func (s *CatalogService) SetStock(ctx context.Context, bookID string, stock int) (*domain.Book, error) {
	return s.store.SetStock(ctx, bookID, stock)
}

// AdjustStock applies a signed stock delta, clamped at zero.
func (s *CatalogService) AdjustStock(ctx context.Context, bookID string, delta int) (*domain.Book, error) {
	return s.store.AdjustStock(ctx, bookID, delta)
}

// Genres returns the distinct genres present in the catalog, sorted.
func (s *CatalogService) Genres(ctx context.Context) ([]string, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	seen := make(map[string]bool)
	var genres []string
	for _, book := range books {
		if book.Genre != "" && !seen[book.Genre] {
			seen[book.Genre] = true
			genres = append(genres, book.Genre)
		}
	}
	sort.Strings(genres)
	return genres, nil
}
