package domain

import "time"

// CartLine is one prospective purchase: a book snapshot plus a quantity.
// Quantity is always positive; a line that would drop to zero is removed.
type CartLine struct {
	Book     BookSnapshot `json:"book"`
	Quantity int          `json:"quantity"`
}

// Subtotal returns price times quantity for this line.
func (l CartLine) Subtotal() int64 {
	return l.Book.Price * int64(l.Quantity)
}

// Cart holds a shopper's prospective line items.
//
// All mutating methods are total functions over in-memory state; stock
// limits are deliberately NOT enforced here. Checkout validates quantities
// against the catalog, so a cart can briefly hold more than is in stock.
type Cart struct {
	UserEmail string     `json:"user_email"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCart creates an empty cart for the given identity.
func NewCart(userEmail string) *Cart {
	return &Cart{
		UserEmail: userEmail,
		Lines:     []CartLine{},
		UpdatedAt: time.Now(),
	}
}

// Add increments the quantity of an existing line for the book, or appends
// a new line with quantity 1. Returns the resulting lines.
func (c *Cart) Add(book BookSnapshot) []CartLine {
	for i := range c.Lines {
		if c.Lines[i].Book.BookID == book.BookID {
			c.Lines[i].Quantity++
			c.touch()
			return c.Lines
		}
	}
	c.Lines = append(c.Lines, CartLine{Book: book, Quantity: 1})
	c.touch()
	return c.Lines
}

// SetQuantity sets the quantity for a book's line. A quantity of zero or
// less removes the line. Setting a quantity for a book not in the cart is
// a no-op.
func (c *Cart) SetQuantity(bookID string, qty int) []CartLine {
	if qty <= 0 {
		return c.Remove(bookID)
	}
	for i := range c.Lines {
		if c.Lines[i].Book.BookID == bookID {
			c.Lines[i].Quantity = qty
			c.touch()
			break
		}
	}
	return c.Lines
}

// Remove deletes the line for the given book, if present.
func (c *Cart) Remove(bookID string) []CartLine {
	for i := range c.Lines {
		if c.Lines[i].Book.BookID == bookID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.touch()
			break
		}
	}
	return c.Lines
}

// Clear empties the cart.
func (c *Cart) Clear() []CartLine {
	c.Lines = []CartLine{}
	c.touch()
	return c.Lines
}

// Total returns the sum of price*quantity over all lines.
func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.Subtotal()
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ItemCount returns the total number of copies across all lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, l := range c.Lines {
		count += l.Quantity
	}
	return count
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}
