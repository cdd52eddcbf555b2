package domain

import "time"

// Kind distinguishes a paid purchase from a zero-cost borrow.
type Kind string

const (
	// KindPurchase is a paid transaction transferring books permanently.
	KindPurchase Kind = "purchase"
	// KindBorrow is a zero-cost loan expected to be returned.
	KindBorrow Kind = "borrow"
)

// Status is a transaction's position in its lifecycle.
type Status string

const (
	// StatusPending is the initial state of a purchase, awaiting fulfillment.
	StatusPending Status = "pending"
	// StatusCompleted is the terminal state of a purchase.
	StatusCompleted Status = "completed"
	// StatusIssued is the initial state of a borrow (the book is checked out).
	StatusIssued Status = "issued"
	// StatusReturned is the terminal state of a borrow.
	StatusReturned Status = "returned"
)

// Customer holds the contact details captured at checkout.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// TransactionItem is one book within a transaction. The snapshot freezes
// the price that was charged, regardless of later catalog edits.
type TransactionItem struct {
	Book     BookSnapshot `json:"book"`
	Quantity int          `json:"quantity"`
}

// Transaction is the single unified record of a completed purchase or
// borrow. One record per transaction ID, owned by the user identified by
// UserEmail; there are no per-user side copies to reconcile.
type Transaction struct {
	Meta
	Kind      Kind              `json:"kind"`
	UserEmail string            `json:"user_email"`
	Customer  Customer          `json:"customer"`
	Items     []TransactionItem `json:"items"`
	Total     int64             `json:"total"`
	Status    Status            `json:"status"`

	// Borrow-only fields.
	DueDate    *time.Time `json:"due_date,omitempty"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	// Overdue is set by the overdue sweep when an issued borrow passes its
	// due date. Informational only; it does not affect transitions.
	Overdue bool `json:"overdue,omitempty"`
}

// InitialStatus returns the entry state of the lifecycle for a kind.
func InitialStatus(kind Kind) Status {
	if kind == KindBorrow {
		return StatusIssued
	}
	return StatusPending
}

// CanTransition reports whether moving this transaction to the given
// status is a legal lifecycle step.
//
//	purchase: pending -> completed
//	borrow:   issued  -> returned
func (t *Transaction) CanTransition(to Status) bool {
	switch t.Kind {
	case KindPurchase:
		return t.Status == StatusPending && to == StatusCompleted
	case KindBorrow:
		return t.Status == StatusIssued && to == StatusReturned
	}
	return false
}

// IsTerminal reports whether the transaction has reached a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusReturned
}

// IsOverdue reports whether an issued borrow is past its due date at the
// given instant. Always false for purchases and returned borrows.
func (t *Transaction) IsOverdue(now time.Time) bool {
	if t.Kind != KindBorrow || t.Status != StatusIssued || t.DueDate == nil {
		return false
	}
	return now.After(*t.DueDate)
}

// ItemQuantity returns the total copies across all items.
func (t *Transaction) ItemQuantity() int {
	count := 0
	for _, item := range t.Items {
		count += item.Quantity
	}
	return count
}
