package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bookhaven/bookhaven-server/internal/errors"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

func TestCreateBook(t *testing.T) {
	env := setupServices(t)

	book, err := env.catalog.CreateBook(t.Context(), CreateBookRequest{
		Title:  "1984",
		Author: "George Orwell",
		Genre:  "Dystopia",
		Price:  580,
		Stock:  5,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(book.ID, "book-"))
	assert.Equal(t, "1984", book.Title)
	assert.Equal(t, 5, book.Stock)
}

func TestCreateBookValidation(t *testing.T) {
	env := setupServices(t)

	_, err := env.catalog.CreateBook(t.Context(), CreateBookRequest{
		Author: "No Title",
		Price:  -5,
	})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	var domainErr *apperrors.Error
	require.ErrorAs(t, err, &domainErr)
	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details, "title")
	assert.Contains(t, details, "price")
}

func TestListBooksPaged(t *testing.T) {
	env := setupServices(t)
	for _, id := range []string{"book-1", "book-2", "book-3"} {
		env.seedBook(t, id, 100, 1)
	}

	page, err := env.catalog.ListBooks(t.Context(), store.PageParams{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 2)

	rest, err := env.catalog.ListBooks(t.Context(), store.PageParams{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
}

func TestUpdateBookNotFound(t *testing.T) {
	env := setupServices(t)

	_, err := env.catalog.UpdateBook(t.Context(), "book-missing", UpdateBookRequest{
		Title:  "x",
		Author: "y",
	})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGenres(t *testing.T) {
	env := setupServices(t)

	mk := func(title, genre string) {
		_, err := env.catalog.CreateBook(t.Context(), CreateBookRequest{Title: title, Author: "A", Genre: genre, Price: 1, Stock: 1})
		require.NoError(t, err)
	}
	mk("a", "Fantasy")
	mk("b", "Dystopia")
	mk("c", "Fantasy")
	mk("d", "")

	genres, err := env.catalog.Genres(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"Dystopia", "Fantasy"}, genres)
}
