package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-server/internal/domain"
)

func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	idx, err := NewIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, idx.Close())
	})
	return idx
}

func testBook(id, title, author, genre string, price int64, stock int) *domain.Book {
	return &domain.Book{
		Meta: domain.Meta{
			ID:        id,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Title:  title,
		Author: author,
		Genre:  genre,
		Price:  price,
		Stock:  stock,
	}
}

func seedIndex(t *testing.T, idx *Index) {
	t.Helper()
	require.NoError(t, idx.IndexBooks([]*domain.Book{
		testBook("book-1", "The Master and Margarita", "Mikhail Bulgakov", "Classics", 450, 3),
		testBook("book-3", "1984", "George Orwell", "Dystopia", 580, 5),
		testBook("book-4", "Brave New World", "Aldous Huxley", "Dystopia", 520, 0),
		testBook("book-7", "The Hobbit", "J.R.R. Tolkien", "Fantasy", 700, 2),
	}))
}

func TestSearchByTitle(t *testing.T) {
	idx := setupTestIndex(t)
	seedIndex(t, idx)

	result, err := idx.Search(t.Context(), Params{Query: "1984", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "book-3", result.Hits[0].ID)
	assert.Equal(t, "1984", result.Hits[0].Title)
	assert.Equal(t, int64(580), result.Hits[0].Price)
}

func TestSearchByAuthor(t *testing.T) {
	idx := setupTestIndex(t)
	seedIndex(t, idx)

	result, err := idx.Search(t.Context(), Params{Query: "Orwell", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "book-3", result.Hits[0].ID)
}

func TestSearchGenreFilter(t *testing.T) {
	idx := setupTestIndex(t)
	seedIndex(t, idx)

	result, err := idx.Search(t.Context(), Params{Genre: "Dystopia", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Total)

	// Keyword analysis: "Fantasy" must not match "Fantastic" etc.
	result, err = idx.Search(t.Context(), Params{Genre: "Fantasy", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "book-7", result.Hits[0].ID)
}

func TestSearchInStockOnly(t *testing.T) {
	idx := setupTestIndex(t)
	seedIndex(t, idx)

	result, err := idx.Search(t.Context(), Params{Genre: "Dystopia", InStockOnly: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "book-3", result.Hits[0].ID)
	assert.True(t, result.Hits[0].InStock)
}

func TestSearchMatchAll(t *testing.T) {
	idx := setupTestIndex(t)
	seedIndex(t, idx)

	result, err := idx.Search(t.Context(), Params{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 4, result.Total)
}

func TestSearchSortByPrice(t *testing.T) {
	idx := setupTestIndex(t)
	seedIndex(t, idx)

	result, err := idx.Search(t.Context(), Params{Limit: 10, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, result.Hits, 4)
	assert.Equal(t, "book-1", result.Hits[0].ID)
	assert.Equal(t, "book-7", result.Hits[3].ID)
}

func TestIndexUpdateReplacesDocument(t *testing.T) {
	idx := setupTestIndex(t)
	seedIndex(t, idx)

	// Reindexing the same ID replaces the document.
	updated := testBook("book-3", "1984", "George Orwell", "Dystopia", 580, 0)
	require.NoError(t, idx.IndexBook(t.Context(), updated))

	result, err := idx.Search(t.Context(), Params{Query: "1984", InStockOnly: true, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, result.Hits)

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
}

func TestRebuild(t *testing.T) {
	idx := setupTestIndex(t)
	seedIndex(t, idx)

	require.NoError(t, idx.Rebuild())

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	// Index is usable after a rebuild.
	require.NoError(t, idx.IndexBook(t.Context(), testBook("book-1", "Re-added", "Author", "Genre", 100, 1)))
	count, err = idx.DocumentCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
