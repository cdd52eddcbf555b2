package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	apperrors "github.com/bookhaven/bookhaven-server/internal/errors"
)

// Transaction log operations. Purchases and borrows share one record type
// and one keyspace; stock movement and the transaction write always happen
// inside a single Badger update, so a failed checkout leaves both the
// catalog and the history exactly as they were.

// TransactionFilter narrows ListTransactions. Zero values match everything.
type TransactionFilter struct {
	Kind      domain.Kind
	Status    domain.Status
	UserEmail string
}

func (f TransactionFilter) matches(t *domain.Transaction) bool {
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.UserEmail != "" && normalizeEmail(t.UserEmail) != normalizeEmail(f.UserEmail) {
		return false
	}
	return true
}

// CreatePurchase records a purchase and decrements stock for every item,
// all or nothing. If any item's stock is below its requested quantity the
// whole update aborts with an insufficient stock error naming the first
// offending book, and no stock is touched.
//
// The transaction must carry at least one item; its status is forced to
// the purchase entry state.
func (s *Store) CreatePurchase(ctx context.Context, txn *domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(txn.Items) == 0 {
		return apperrors.Validation("purchase has no items")
	}

	txn.Kind = domain.KindPurchase
	txn.Status = domain.InitialStatus(domain.KindPurchase)
	txn.InitTimestamps()

	var touched []*domain.Book
	err := s.db.Update(func(btxn *badger.Txn) error {
		// Validate and decrement in one pass. Badger transactions read
		// their own writes and abort wholesale on error, which is what
		// makes this all-or-nothing.
		touched = touched[:0]
		for _, item := range txn.Items {
			book, err := getBookTxn(btxn, item.Book.BookID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return apperrors.NotFoundf("book %s not found", item.Book.BookID)
				}
				return err
			}
			if book.Stock < item.Quantity {
				return apperrors.InsufficientStock(book.ID)
			}
			book.Stock -= item.Quantity
			book.Touch()
			if err := putBookTxn(btxn, book); err != nil {
				return err
			}
			touched = append(touched, book)
		}
		return writeTransactionTxn(btxn, txn)
	})
	if err != nil {
		return err
	}

	// Keep in_stock searches honest after the sale.
	for _, book := range touched {
		s.indexBookAsync(book)
	}
	return nil
}

// CreateBorrow issues a batch of borrow candidates, one transaction per
// book, in a single update. Each granted book gets its own record with its
// own issued to returned lifecycle, so books borrowed together can still be
// returned one at a time. Unlike purchases, borrows degrade gracefully:
// candidates whose book is out of stock are dropped, and only when every
// requested book is unavailable does the whole request fail with a no books
// available error (and no stock is touched).
//
// Every candidate must carry exactly one item; one copy is taken per
// granted book regardless of the requested quantity. On success the
// granted transactions are returned with their due dates set to now plus
// loanPeriod.
func (s *Store) CreateBorrow(ctx context.Context, candidates []*domain.Transaction, loanPeriod time.Duration) ([]*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, apperrors.Validation("borrow has no items")
	}
	for _, txn := range candidates {
		if len(txn.Items) != 1 {
			return nil, apperrors.Validation("borrow candidate must hold exactly one book")
		}
	}

	var granted []*domain.Transaction
	var touched []*domain.Book
	err := s.db.Update(func(btxn *badger.Txn) error {
		granted = granted[:0]
		touched = touched[:0]
		for _, txn := range candidates {
			book, err := getBookTxn(btxn, txn.Items[0].Book.BookID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return apperrors.NotFoundf("book %s not found", txn.Items[0].Book.BookID)
				}
				return err
			}
			if book.Stock == 0 {
				continue // out of stock, skip this book
			}

			book.Stock--
			book.Touch()
			if err := putBookTxn(btxn, book); err != nil {
				return err
			}

			txn.Kind = domain.KindBorrow
			txn.Status = domain.InitialStatus(domain.KindBorrow)
			txn.Total = 0
			txn.Items[0].Quantity = 1
			txn.InitTimestamps()
			due := txn.CreatedAt.Add(loanPeriod)
			txn.DueDate = &due

			if err := writeTransactionTxn(btxn, txn); err != nil {
				return err
			}
			touched = append(touched, book)
			granted = append(granted, txn)
		}

		if len(granted) == 0 {
			return apperrors.NoBooksAvailable()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, book := range touched {
		s.indexBookAsync(book)
	}
	return granted, nil
}

// GetTransaction retrieves a transaction by ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var txn domain.Transaction
	err := s.get(txnKey(id), &txn)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

// SetTransactionStatus advances a transaction through its lifecycle.
// Illegal steps fail with an invalid transition error; in particular a
// second return of the same borrow is rejected rather than restocking
// twice. Returning a borrow puts every granted copy back on the shelf in
// the same update that flips the status.
func (s *Store) SetTransactionStatus(ctx context.Context, id string, to domain.Status) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *domain.Transaction
	var touched []*domain.Book
	err := s.db.Update(func(btxn *badger.Txn) error {
		touched = touched[:0]
		txn, err := getTransactionTxn(btxn, id)
		if err != nil {
			return err
		}

		if !txn.CanTransition(to) {
			return apperrors.InvalidTransition(string(txn.Status), string(to))
		}

		if to == domain.StatusReturned {
			now := time.Now()
			txn.ReturnedAt = &now
			txn.Overdue = false
			for _, item := range txn.Items {
				book, err := getBookTxn(btxn, item.Book.BookID)
				if errors.Is(err, ErrNotFound) {
					// Imported legacy borrows can name books the
					// catalog never had; nothing to restock.
					continue
				}
				if err != nil {
					return err
				}
				book.Stock += item.Quantity
				book.Touch()
				if err := putBookTxn(btxn, book); err != nil {
					return err
				}
				touched = append(touched, book)
			}
		}

		txn.Status = to
		txn.Touch()
		if err := writeTransactionTxn(btxn, txn); err != nil {
			return err
		}
		updated = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, book := range touched {
		s.indexBookAsync(book)
	}
	return updated, nil
}

// MarkOverdue flags an issued borrow as overdue. Used by the sweep job;
// idempotent, and a no-op for transactions that are no longer issued.
func (s *Store) MarkOverdue(ctx context.Context, id string) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *domain.Transaction
	err := s.db.Update(func(btxn *badger.Txn) error {
		txn, err := getTransactionTxn(btxn, id)
		if err != nil {
			return err
		}
		if txn.Status != domain.StatusIssued || txn.Overdue {
			updated = txn
			return nil
		}
		txn.Overdue = true
		txn.Touch()
		if err := writeTransactionTxn(btxn, txn); err != nil {
			return err
		}
		updated = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListTransactionsByUser returns a user's full history, purchases and
// borrows interleaved, newest first. Resolved through the per-user index,
// so it never scans other users' records.
func (s *Store) ListTransactionsByUser(ctx context.Context, email string) ([]*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ids []string
	prefix := txnUserScanPrefix(email)
	err := s.db.View(func(btxn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = true

		it := btxn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	txns := make([]*domain.Transaction, 0, len(ids))
	for _, id := range ids {
		txn, err := s.GetTransaction(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue // index entry outlived its record
		}
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	sortTransactionsNewestFirst(txns)
	return txns, nil
}

// ListTransactions returns all transactions matching the filter, newest
// first. This is the admin reconciliation view; with a zero filter it is
// the complete log.
func (s *Store) ListTransactions(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var txns []*domain.Transaction
	err := s.db.View(func(btxn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(txnPrefix)
		opts.PrefetchValues = true

		it := btxn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(txnPrefix)); it.ValidForPrefix([]byte(txnPrefix)); it.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			key := string(it.Item().Key())
			if strings.HasPrefix(key[len(txnPrefix):], "idx:") {
				continue
			}

			var txn domain.Transaction
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &txn)
			}); err != nil {
				return fmt.Errorf("failed to unmarshal transaction: %w", err)
			}
			if filter.matches(&txn) {
				txns = append(txns, &txn)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortTransactionsNewestFirst(txns)
	return txns, nil
}

// ImportTransaction writes a pre-built transaction record, as produced by
// the legacy export importer. Stock is not touched: imported records
// describe history that already happened. Records whose ID already exists
// are skipped, which makes re-importing the same export a no-op.
// Reports whether the record was written.
func (s *Store) ImportTransaction(ctx context.Context, txn *domain.Transaction) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	imported := false
	err := s.db.Update(func(btxn *badger.Txn) error {
		if _, err := btxn.Get(txnKey(txn.ID)); err == nil {
			return nil // already present, skip
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check transaction: %w", err)
		}
		if err := writeTransactionTxn(btxn, txn); err != nil {
			return err
		}
		imported = true
		return nil
	})
	return imported, err
}

// getTransactionTxn reads a transaction inside an open update.
func getTransactionTxn(btxn *badger.Txn, id string) (*domain.Transaction, error) {
	item, err := btxn.Get(txnKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	var txn domain.Transaction
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &txn)
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	return &txn, nil
}

// writeTransactionTxn writes a transaction record and its per-user index
// entry inside an open update.
func writeTransactionTxn(btxn *badger.Txn, txn *domain.Transaction) error {
	data, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}
	if err := btxn.Set(txnKey(txn.ID), data); err != nil {
		return fmt.Errorf("failed to set transaction: %w", err)
	}
	if txn.UserEmail != "" {
		if err := btxn.Set(txnUserIdxKey(txn.UserEmail, txn.ID), []byte(txn.ID)); err != nil {
			return fmt.Errorf("failed to set transaction index: %w", err)
		}
	}
	return nil
}

func sortTransactionsNewestFirst(txns []*domain.Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		if !txns[i].CreatedAt.Equal(txns[j].CreatedAt) {
			return txns[i].CreatedAt.After(txns[j].CreatedAt)
		}
		return txns[i].ID > txns[j].ID
	})
}
