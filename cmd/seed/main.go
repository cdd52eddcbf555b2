// Package main seeds the BookHaven catalog with the storefront's book list.
// Seeding is idempotent: books already in the catalog are left untouched,
// so stock movements survive a re-run.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bookhaven/bookhaven-server/internal/config"
	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/logger"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

// catalog is the storefront's stock list. IDs are stable (book-N) so legacy
// order imports referencing numeric catalog IDs line up with these records.
var catalog = []domain.Book{
	{Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Classics", Price: 650, Stock: 12,
		CoverURL: "https://cdn.book24.ru/v2/ASE000000000843249/COVER/cover3d__w600.webp"},
	{Title: "The Master and Margarita", Author: "Mikhail Bulgakov", Genre: "Classics", Price: 720, Stock: 8,
		CoverURL: "https://cdn.book24.ru/v2/ASE000000000836750/COVER/cover3d__w600.webp"},
	{Title: "1984", Author: "George Orwell", Genre: "Dystopia", Price: 580, Stock: 5,
		CoverURL: "https://cdn.book24.ru/v2/ASE000000000851179/COVER/cover3d__w600.webp"},
	{Title: "Harry Potter and the Philosopher's Stone", Author: "J. K. Rowling", Genre: "Fantasy", Price: 850, Stock: 15,
		CoverURL: "https://cdn.book24.ru/v2/ITD000000000912310/COVER/cover3d__w600.webp"},
	{Title: "Crime and Punishment", Author: "Fyodor Dostoevsky", Genre: "Classics", Price: 690, Stock: 7,
		CoverURL: "https://cdn.book24.ru/v2/ASE000000000843284/COVER/cover3d__w600.webp"},
	{Title: "War and Peace", Author: "Leo Tolstoy", Genre: "Classics", Price: 950, Stock: 3,
		CoverURL: "https://cdn.book24.ru/v2/ASE000000000836754/COVER/cover3d__w600.webp"},
	{Title: "Three Comrades", Author: "Erich Maria Remarque", Genre: "Modern Fiction", Price: 680, Stock: 9,
		CoverURL: "https://cdn.book24.ru/v2/ASE000000000850890/COVER/cover3d__w600.webp"},
	{Title: "Flowers for Algernon", Author: "Daniel Keyes", Genre: "Science Fiction", Price: 590, Stock: 11,
		CoverURL: "https://cdn.book24.ru/v2/ASE000000000851175/COVER/cover3d__w600.webp"},
	{Title: "Martin Eden", Author: "Jack London", Genre: "Modern Fiction", Price: 710, Stock: 6,
		CoverURL: "https://cdn.book24.ru/v2/ASE000000000836800/COVER/cover3d__w600.webp"},
	{Title: "Sherlock Holmes", Author: "Arthur Conan Doyle", Genre: "Mystery", Price: 760, Stock: 4,
		CoverURL: "https://cdn.book24.ru/v2/ASE000000000851006/COVER/cover3d__w600.webp"},
	{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Genre: "Classics", Price: 620, Stock: 10,
		CoverURL: "https://cdn.book24.ru/v2/ASE000000000836781/COVER/cover3d__w600.webp"},
	{Title: "The Lord of the Rings", Author: "J. R. R. Tolkien", Genre: "Fantasy", Price: 880, Stock: 2,
		CoverURL: "https://cdn.book24.ru/v2/ASE000000000850957/COVER/cover3d__w600.webp"},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	st, err := store.New(cfg.DatabasePath(), log.Logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	created, skipped := 0, 0

	for i, book := range catalog {
		book.ID = domain.CatalogBookID(int64(i + 1))

		err := st.CreateBook(ctx, &book)
		switch {
		case err == nil:
			created++
		case errors.Is(err, store.ErrAlreadyExists):
			skipped++
		default:
			return fmt.Errorf("seed %s: %w", book.ID, err)
		}
	}

	log.Info("Catalog seeded", "created", created, "skipped", skipped)
	return nil
}
