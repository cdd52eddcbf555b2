package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/money"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

// HistoryService renders transaction history into display-ready views:
// formatted prices, overdue flags computed against the clock, and the
// summary the admin reconciliation screen shows.
type HistoryService struct {
	store  *store.Store
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewHistoryService creates a new history service.
func NewHistoryService(store *store.Store, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// HistoryEntry is one transaction prepared for display.
type HistoryEntry struct {
	*domain.Transaction
	DisplayTotal string `json:"display_total"`
	// PastDue is computed at read time, unlike the persisted Overdue flag
	// which the sweep sets. A borrow can be past due before the sweep ran.
	PastDue bool `json:"past_due"`
}

// Summary aggregates the full transaction log for reconciliation.
type Summary struct {
	Purchases     int    `json:"purchases"`
	Borrows       int    `json:"borrows"`
	ActiveLoans   int    `json:"active_loans"`
	OverdueLoans  int    `json:"overdue_loans"`
	Revenue       int64  `json:"revenue"`
	DisplayRev    string `json:"display_revenue"`
	UniqueReaders int    `json:"unique_readers"`
}

// ForUser returns a user's history, newest first, display-ready.
func (s *HistoryService) ForUser(ctx context.Context, email string) ([]HistoryEntry, error) {
	txns, err := s.store.ListTransactionsByUser(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.entries(txns), nil
}

// All returns the filtered transaction log, display-ready.
func (s *HistoryService) All(ctx context.Context, filter store.TransactionFilter) ([]HistoryEntry, error) {
	txns, err := s.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.entries(txns), nil
}

// Summarize computes the reconciliation summary over the whole log.
// Revenue counts purchases regardless of fulfillment status; a pending
// order is still money owed.
func (s *HistoryService) Summarize(ctx context.Context) (*Summary, error) {
	txns, err := s.store.ListTransactions(ctx, store.TransactionFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	summary := &Summary{}
	readers := make(map[string]bool)

	for _, txn := range txns {
		readers[txn.UserEmail] = true
		switch txn.Kind {
		case domain.KindPurchase:
			summary.Purchases++
			summary.Revenue += txn.Total
		case domain.KindBorrow:
			summary.Borrows++
			if txn.Status == domain.StatusIssued {
				summary.ActiveLoans++
				if txn.IsOverdue(now) {
					summary.OverdueLoans++
				}
			}
		}
	}

	summary.UniqueReaders = len(readers)
	summary.DisplayRev = money.FormatRoubles(summary.Revenue)
	return summary, nil
}

func (s *HistoryService) entries(txns []*domain.Transaction) []HistoryEntry {
	now := s.now()
	entries := make([]HistoryEntry, 0, len(txns))
	for _, txn := range txns {
		entries = append(entries, HistoryEntry{
			Transaction:  txn,
			DisplayTotal: money.FormatRoubles(txn.Total),
			PastDue:      txn.IsOverdue(now),
		})
	}
	return entries
}
