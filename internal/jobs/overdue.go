// Package jobs holds the scheduled background work: the nightly overdue
// sweep over issued borrows.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/notify"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

// OverdueSweeper flags issued borrows past their due date and notifies the
// borrower. The persisted Overdue flag marks "the sweep has seen this";
// notifications go out once per borrow, not once per night.
type OverdueSweeper struct {
	store  *store.Store
	sender notify.Sender
	logger *slog.Logger
	cron   *cron.Cron

	// now is swappable for tests.
	now func() time.Time
}

// NewOverdueSweeper creates a sweeper. It does nothing until Start.
func NewOverdueSweeper(st *store.Store, sender notify.Sender, logger *slog.Logger) *OverdueSweeper {
	return &OverdueSweeper{
		store:  st,
		sender: sender,
		logger: logger.With("component", "overdue-sweep"),
		cron:   cron.New(),
		now:    time.Now,
	}
}

// Start schedules the sweep on the given cron expression (standard five
// field syntax, e.g. "0 0 * * *" for nightly at midnight) and runs one
// sweep immediately to catch up after downtime.
func (s *OverdueSweeper) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.Run(ctx); err != nil {
			s.logger.Error("overdue sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule overdue sweep: %w", err)
	}

	s.cron.Start()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.Run(ctx); err != nil {
			s.logger.Error("startup overdue sweep failed", "error", err)
		}
	}()

	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *OverdueSweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Run executes one sweep and returns how many borrows were newly flagged.
func (s *OverdueSweeper) Run(ctx context.Context) (int, error) {
	txns, err := s.store.ListTransactions(ctx, store.TransactionFilter{
		Kind:   domain.KindBorrow,
		Status: domain.StatusIssued,
	})
	if err != nil {
		return 0, fmt.Errorf("list issued borrows: %w", err)
	}

	now := s.now()
	flagged := 0
	for _, txn := range txns {
		if txn.Overdue || !txn.IsOverdue(now) {
			continue
		}

		marked, err := s.store.MarkOverdue(ctx, txn.ID)
		if err != nil {
			s.logger.Error("failed to flag overdue borrow", "txn", txn.ID, "error", err)
			continue
		}
		flagged++

		msg := notify.OverdueNotice(marked)
		if err := s.sender.Send(ctx, msg); err != nil {
			// The flag stuck; the borrower just won't hear about it
			// until the next manual nudge.
			s.logger.Error("failed to send overdue notice", "txn", txn.ID, "error", err)
		}
	}

	if flagged > 0 {
		s.logger.Info("overdue sweep finished", "checked", len(txns), "flagged", flagged)
	}
	return flagged, nil
}
