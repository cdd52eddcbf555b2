package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookhaven/bookhaven-server/internal/search"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

// SearchService fronts the Bleve catalog index and keeps it aligned with
// the store.
type SearchService struct {
	store  *store.Store
	index  *search.Index
	logger *slog.Logger
}

// NewSearchService creates a search service and hooks the index into the
// store so catalog mutations flow into it.
func NewSearchService(store *store.Store, index *search.Index, logger *slog.Logger) *SearchService {
	store.SetSearchIndexer(index)
	return &SearchService{
		store:  store,
		index:  index,
		logger: logger,
	}
}

// Search runs a catalog search.
func (s *SearchService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	if params.Limit <= 0 {
		params.Limit = search.DefaultParams().Limit
	}
	return s.index.Search(ctx, params)
}

// DocumentCount reports how many books are currently indexed.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// Reindex rebuilds the search index from the catalog. Run at startup and
// after bulk imports; individual edits keep the index current on their own.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return 0, fmt.Errorf("list books: %w", err)
	}

	if err := s.index.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	if err := s.index.IndexBooks(books); err != nil {
		return 0, fmt.Errorf("index books: %w", err)
	}

	s.logger.Info("search index rebuilt", "books", len(books))
	return len(books), nil
}
