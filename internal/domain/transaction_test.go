package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusPending, InitialStatus(KindPurchase))
	assert.Equal(t, StatusIssued, InitialStatus(KindBorrow))
}

func TestTransaction_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		from Status
		to   Status
		want bool
	}{
		{"purchase pending to completed", KindPurchase, StatusPending, StatusCompleted, true},
		{"purchase completed is terminal", KindPurchase, StatusCompleted, StatusPending, false},
		{"purchase cannot be returned", KindPurchase, StatusPending, StatusReturned, false},
		{"borrow issued to returned", KindBorrow, StatusIssued, StatusReturned, true},
		{"borrow returned is terminal", KindBorrow, StatusReturned, StatusReturned, false},
		{"borrow cannot be completed", KindBorrow, StatusIssued, StatusCompleted, false},
		{"borrow cannot re-issue", KindBorrow, StatusReturned, StatusIssued, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := &Transaction{Kind: tt.kind, Status: tt.from}
			assert.Equal(t, tt.want, txn.CanTransition(tt.to))
		})
	}
}

func TestTransaction_IsTerminal(t *testing.T) {
	assert.False(t, (&Transaction{Kind: KindPurchase, Status: StatusPending}).IsTerminal())
	assert.True(t, (&Transaction{Kind: KindPurchase, Status: StatusCompleted}).IsTerminal())
	assert.False(t, (&Transaction{Kind: KindBorrow, Status: StatusIssued}).IsTerminal())
	assert.True(t, (&Transaction{Kind: KindBorrow, Status: StatusReturned}).IsTerminal())
}

func TestTransaction_IsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name string
		txn  Transaction
		want bool
	}{
		{"issued borrow past due", Transaction{Kind: KindBorrow, Status: StatusIssued, DueDate: &past}, true},
		{"issued borrow not yet due", Transaction{Kind: KindBorrow, Status: StatusIssued, DueDate: &future}, false},
		{"returned borrow never overdue", Transaction{Kind: KindBorrow, Status: StatusReturned, DueDate: &past}, false},
		{"borrow without due date", Transaction{Kind: KindBorrow, Status: StatusIssued}, false},
		{"purchase never overdue", Transaction{Kind: KindPurchase, Status: StatusPending, DueDate: &past}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.txn.IsOverdue(now))
		})
	}
}

func TestTransaction_ItemQuantity(t *testing.T) {
	txn := &Transaction{
		Items: []TransactionItem{
			{Book: snapshotForTest("book-1", 650), Quantity: 2},
			{Book: snapshotForTest("book-2", 720), Quantity: 1},
		},
	}
	assert.Equal(t, 3, txn.ItemQuantity())
}
