package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	apperrors "github.com/bookhaven/bookhaven-server/internal/errors"
)

// Catalog operations. Books are the only entity the search index mirrors;
// every mutation here schedules an asynchronous index update so a slow or
// broken index never blocks the catalog.

// CreateBook persists a new book.
// Returns ErrAlreadyExists if a book with the same ID exists.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if book.Stock < 0 {
		return apperrors.InvalidStock(book.Stock)
	}

	book.InitTimestamps()
	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("failed to marshal book: %w", err)
	}

	key := bookKey(book.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing book: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return err
	}

	s.indexBookAsync(book)
	return nil
}

// GetBook retrieves a book by ID.
// Returns ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var book domain.Book
	err := s.get(bookKey(id), &book)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

// UpdateBook replaces an existing book's catalog fields. Stock is managed
// through AdjustStock/SetStock and is preserved from the stored record.
// Returns ErrNotFound if the book does not exist.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := bookKey(book.ID)
	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := getBookTxn(txn, book.ID)
		if err != nil {
			return err
		}

		book.CreatedAt = current.CreatedAt
		book.Stock = current.Stock
		book.Touch()

		data, err := json.Marshal(book)
		if err != nil {
			return fmt.Errorf("failed to marshal book: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return err
	}

	s.indexBookAsync(book)
	return nil
}

// ListBooks returns the catalog in insertion order (CreatedAt ascending,
// ID as tie-break), so the storefront shelf is stable across restarts.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var books []*domain.Book
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookPrefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(bookPrefix)); it.ValidForPrefix([]byte(bookPrefix)); it.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var book domain.Book
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &book)
			}); err != nil {
				return fmt.Errorf("failed to unmarshal book: %w", err)
			}
			books = append(books, &book)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(books, func(i, j int) bool {
		if !books[i].CreatedAt.Equal(books[j].CreatedAt) {
			return books[i].CreatedAt.Before(books[j].CreatedAt)
		}
		return naturalLess(books[i].ID, books[j].ID)
	})
	return books, nil
}

// CountBooks returns the number of books in the catalog. Values are not
// fetched; this is a key-only scan.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookPrefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(bookPrefix)); it.ValidForPrefix([]byte(bookPrefix)); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// AdjustStock applies a signed delta to a book's stock, clamping at zero.
// A restock of +3 on stock 2 yields 5; a correction of -10 on stock 2
// yields 0, never a negative shelf.
// Returns the updated book, or ErrNotFound.
func (s *Store) AdjustStock(ctx context.Context, id string, delta int) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *domain.Book
	err := s.db.Update(func(txn *badger.Txn) error {
		book, err := getBookTxn(txn, id)
		if err != nil {
			return err
		}
		book.Stock = max(0, book.Stock+delta)
		book.Touch()
		if err := putBookTxn(txn, book); err != nil {
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.indexBookAsync(updated)
	return updated, nil
}

// SetStock sets a book's stock to an absolute value.
// Rejects negative values with an invalid stock error; zero is legal and
// marks the book out of stock.
func (s *Store) SetStock(ctx context.Context, id string, stock int) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, apperrors.InvalidStock(stock)
	}

	var updated *domain.Book
	err := s.db.Update(func(txn *badger.Txn) error {
		book, err := getBookTxn(txn, id)
		if err != nil {
			return err
		}
		book.Stock = stock
		book.Touch()
		if err := putBookTxn(txn, book); err != nil {
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.indexBookAsync(updated)
	return updated, nil
}

// getBookTxn reads a book inside an open transaction.
func getBookTxn(txn *badger.Txn, id string) (*domain.Book, error) {
	item, err := txn.Get(bookKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	var book domain.Book
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &book)
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal book: %w", err)
	}
	return &book, nil
}

// putBookTxn writes a book inside an open transaction.
func putBookTxn(txn *badger.Txn, book *domain.Book) error {
	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("failed to marshal book: %w", err)
	}
	return txn.Set(bookKey(book.ID), data)
}

// indexBookAsync schedules a search index update for a book.
func (s *Store) indexBookAsync(book *domain.Book) {
	if s.searchIndexer == nil || book == nil {
		return
	}
	indexer := s.searchIndexer
	b := *book
	go func() {
		if err := indexer.IndexBook(context.Background(), &b); err != nil && s.logger != nil {
			s.logger.Warn("failed to index book", "book_id", b.ID, "error", err)
		}
	}()
}

// naturalLess orders IDs like book-2 before book-10 when both share a
// numeric suffix, falling back to plain string order otherwise.
func naturalLess(a, b string) bool {
	ai := strings.LastIndexByte(a, '-')
	bi := strings.LastIndexByte(b, '-')
	if ai > 0 && bi > 0 && a[:ai] == b[:bi] {
		an, aok := atoi(a[ai+1:])
		bn, bok := atoi(b[bi+1:])
		if aok && bok {
			return an < bn
		}
	}
	return a < b
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
