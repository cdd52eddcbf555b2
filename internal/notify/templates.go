package notify

import (
	"fmt"
	"strings"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/money"
)

// Message builders for transaction lifecycle events. Plain text on
// purpose; receipts need to survive every mail client.

// OrderConfirmation builds the receipt sent after a successful purchase.
func OrderConfirmation(txn *domain.Transaction) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", txn.Customer.Name)
	fmt.Fprintf(&b, "Thanks for your order %s!\n\n", txn.ID)
	writeItemLines(&b, txn)
	fmt.Fprintf(&b, "\nTotal: %s\n", money.FormatRoubles(txn.Total))
	b.WriteString("\nWe'll let you know when it ships.\nBookHaven\n")

	return Message{
		To:      txn.Customer.Email,
		Subject: fmt.Sprintf("Your BookHaven order %s", txn.ID),
		Body:    b.String(),
	}
}

// BorrowConfirmation builds the message sent after books are issued. Each
// loan is its own transaction; one confirmation covers the whole batch,
// which shares the customer and the due date.
func BorrowConfirmation(txns []*domain.Transaction) Message {
	first := txns[0]

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", first.Customer.Name)
	b.WriteString("You've borrowed:\n\n")
	for _, txn := range txns {
		writeItemLines(&b, txn)
	}
	if first.DueDate != nil {
		fmt.Fprintf(&b, "\nPlease return by %s.\n", first.DueDate.Format("2 January 2006"))
	}
	b.WriteString("\nHappy reading!\nBookHaven\n")

	return Message{
		To:      first.Customer.Email,
		Subject: "Your borrowed books from BookHaven",
		Body:    b.String(),
	}
}

// OverdueNotice builds the reminder for a borrow past its due date.
func OverdueNotice(txn *domain.Transaction) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", txn.Customer.Name)
	b.WriteString("These books are overdue:\n\n")
	writeItemLines(&b, txn)
	if txn.DueDate != nil {
		fmt.Fprintf(&b, "\nThey were due on %s. Please return them soon.\n", txn.DueDate.Format("2 January 2006"))
	}
	b.WriteString("\nBookHaven\n")

	return Message{
		To:      txn.Customer.Email,
		Subject: "Overdue books at BookHaven",
		Body:    b.String(),
	}
}

func writeItemLines(b *strings.Builder, txn *domain.Transaction) {
	for _, item := range txn.Items {
		fmt.Fprintf(b, "  - %s by %s", item.Book.Title, item.Book.Author)
		if item.Quantity > 1 {
			fmt.Fprintf(b, " x%d", item.Quantity)
		}
		if txn.Kind == domain.KindPurchase {
			fmt.Fprintf(b, " (%s)", money.FormatRoubles(item.Book.Price*int64(item.Quantity)))
		}
		b.WriteString("\n")
	}
}
