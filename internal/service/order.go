package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	apperrors "github.com/bookhaven/bookhaven-server/internal/errors"
	"github.com/bookhaven/bookhaven-server/internal/id"
	"github.com/bookhaven/bookhaven-server/internal/notify"
	"github.com/bookhaven/bookhaven-server/internal/store"
	"github.com/bookhaven/bookhaven-server/internal/validation"
)

// OrderService runs checkout for purchases and borrows and manages the
// transaction lifecycle afterwards.
type OrderService struct {
	store      *store.Store
	users      *UserService
	validator  *validation.Validator
	sender     notify.Sender
	loanPeriod time.Duration
	logger     *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(store *store.Store, users *UserService, validator *validation.Validator, sender notify.Sender, loanPeriod time.Duration, logger *slog.Logger) *OrderService {
	return &OrderService{
		store:      store,
		users:      users,
		validator:  validator,
		sender:     sender,
		loanPeriod: loanPeriod,
		logger:     logger,
	}
}

// CheckoutRequest carries the contact details captured at checkout.
type CheckoutRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,min=5,max=30"`
}

// BorrowRequest selects books to borrow plus contact details.
type BorrowRequest struct {
	Name    string   `json:"name" validate:"required,max=200"`
	Email   string   `json:"email" validate:"required,email"`
	Phone   string   `json:"phone" validate:"omitempty,min=5,max=30"`
	BookIDs []string `json:"book_ids" validate:"required,min=1,dive,required"`
}

// CheckoutPurchase turns the shopper's cart into a purchase transaction.
// Items are re-snapshotted from the live catalog so the charged price is
// the price at checkout, not the price when the book entered the cart.
// The whole order succeeds or fails as one unit; on success the cart is
// cleared and a receipt goes out.
func (s *OrderService) CheckoutPurchase(ctx context.Context, userEmail string, req CheckoutRequest) (*domain.Transaction, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	cart, err := s.store.GetCart(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, apperrors.Validation("cart is empty")
	}

	if _, err := s.users.Ensure(ctx, req.Name, userEmail, req.Phone); err != nil {
		return nil, err
	}

	items := make([]domain.TransactionItem, 0, len(cart.Lines))
	var total int64
	for _, line := range cart.Lines {
		book, err := s.store.GetBook(ctx, line.Book.BookID)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.TransactionItem{
			Book:     book.Snapshot(),
			Quantity: line.Quantity,
		})
		total += book.Price * int64(line.Quantity)
	}

	txnID, err := id.Generate(id.PrefixTransaction)
	if err != nil {
		return nil, fmt.Errorf("generate transaction id: %w", err)
	}

	txn := &domain.Transaction{
		Meta:      domain.Meta{ID: txnID},
		UserEmail: userEmail,
		Customer:  domain.Customer{Name: req.Name, Email: req.Email, Phone: req.Phone},
		Items:     items,
		Total:     total,
	}
	if err := s.store.CreatePurchase(ctx, txn); err != nil {
		return nil, err
	}

	if err := s.store.DeleteCart(ctx, userEmail); err != nil {
		// The order stands; an uncleaned cart is an annoyance, not a loss.
		s.logger.Warn("failed to clear cart after checkout", "user", userEmail, "error", err)
	}

	s.logger.Info("purchase completed",
		"transaction_id", txn.ID,
		"user", userEmail,
		"items", len(txn.Items),
		"total", txn.Total,
	)
	s.notifyAsync(notify.OrderConfirmation(txn))
	return txn, nil
}

// CheckoutBorrow issues the requested books as a zero-cost loan, one
// transaction per book so each loan can be returned on its own. Books out
// of stock are skipped rather than failing the request; if nothing is
// available the borrow fails as a whole.
func (s *OrderService) CheckoutBorrow(ctx context.Context, userEmail string, req BorrowRequest) ([]*domain.Transaction, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.users.Ensure(ctx, req.Name, userEmail, req.Phone); err != nil {
		return nil, err
	}

	candidates := make([]*domain.Transaction, 0, len(req.BookIDs))
	seen := make(map[string]bool)
	for _, bookID := range req.BookIDs {
		if seen[bookID] {
			continue
		}
		seen[bookID] = true

		book, err := s.store.GetBook(ctx, bookID)
		if err != nil {
			return nil, err
		}

		txnID, err := id.Generate(id.PrefixTransaction)
		if err != nil {
			return nil, fmt.Errorf("generate transaction id: %w", err)
		}
		candidates = append(candidates, &domain.Transaction{
			Meta:      domain.Meta{ID: txnID},
			UserEmail: userEmail,
			Customer:  domain.Customer{Name: req.Name, Email: req.Email, Phone: req.Phone},
			Items:     []domain.TransactionItem{{Book: book.Snapshot(), Quantity: 1}},
		})
	}

	granted, err := s.store.CreateBorrow(ctx, candidates, s.loanPeriod)
	if err != nil {
		return nil, err
	}

	s.logger.Info("books issued",
		"user", userEmail,
		"loans", len(granted),
		"due", granted[0].DueDate,
	)
	s.notifyAsync(notify.BorrowConfirmation(granted))
	return granted, nil
}

// Get returns a single transaction.
func (s *OrderService) Get(ctx context.Context, txnID string) (*domain.Transaction, error) {
	return s.store.GetTransaction(ctx, txnID)
}

// Complete marks a pending purchase as fulfilled.
func (s *OrderService) Complete(ctx context.Context, txnID string) (*domain.Transaction, error) {
	return s.store.SetTransactionStatus(ctx, txnID, domain.StatusCompleted)
}

// Return marks an issued borrow as returned, restocking the borrowed
// copies. A second return of the same borrow is rejected.
func (s *OrderService) Return(ctx context.Context, txnID string) (*domain.Transaction, error) {
	txn, err := s.store.SetTransactionStatus(ctx, txnID, domain.StatusReturned)
	if err != nil {
		return nil, err
	}
	s.logger.Info("books returned", "transaction_id", txn.ID, "user", txn.UserEmail)
	return txn, nil
}

// ListByUser returns a user's history, newest first.
func (s *OrderService) ListByUser(ctx context.Context, email string) ([]*domain.Transaction, error) {
	return s.store.ListTransactionsByUser(ctx, email)
}

// ListAll returns transactions across all users for the admin view.
func (s *OrderService) ListAll(ctx context.Context, filter store.TransactionFilter) ([]*domain.Transaction, error) {
	return s.store.ListTransactions(ctx, filter)
}

// notifyAsync delivers a notification without holding up the request.
// Delivery failures are logged and dropped; notifications are best effort.
func (s *OrderService) notifyAsync(msg notify.Message) {
	if s.sender == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.sender.Send(ctx, msg); err != nil {
			s.logger.Warn("failed to send notification", "to", msg.To, "error", err)
		}
	}()
}
